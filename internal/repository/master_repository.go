package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/haken-contracts/internal/model"
)

// GetCompany returns the staffing company operating the tenant.
func (r *Repository) GetCompany(ctx context.Context, tenantID uuid.UUID) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Take(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *Repository) GetClient(ctx context.Context, tenantID, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *Repository) GetClientDepartment(ctx context.Context, tenantID, id uuid.UUID) (*model.ClientDepartment, error) {
	var department model.ClientDepartment
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *Repository) GetStaff(ctx context.Context, tenantID, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	err := r.db.WithContext(ctx).
		Preload("International").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *Repository) GetEmploymentType(ctx context.Context, tenantID, id uuid.UUID) (*model.EmploymentType, error) {
	var employmentType model.EmploymentType
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&employmentType).Error; err != nil {
		return nil, err
	}
	return &employmentType, nil
}

func (r *Repository) GetJobCategory(ctx context.Context, tenantID, id uuid.UUID) (*model.JobCategory, error) {
	var category model.JobCategory
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) GetContractPattern(ctx context.Context, tenantID, id uuid.UUID) (*model.ContractPattern, error) {
	var pattern model.ContractPattern
	err := r.db.WithContext(ctx).
		Preload("Terms", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&pattern).Error
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

func (r *Repository) GetPaymentSite(ctx context.Context, tenantID, id uuid.UUID) (*model.PaymentSite, error) {
	var site model.PaymentSite
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&site).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

// ListDropdowns returns the active entries of category in display order.
func (r *Repository) ListDropdowns(ctx context.Context, category string) ([]model.Dropdown, error) {
	var dropdowns []model.Dropdown
	err := r.db.WithContext(ctx).
		Where("category = ? AND active = ?", category, true).
		Order("display_order ASC, value ASC").
		Find(&dropdowns).Error
	if err != nil {
		return nil, err
	}
	return dropdowns, nil
}

// LatestMinimumPay returns the newest active wage of pref effective on or before on.
func (r *Repository) LatestMinimumPay(ctx context.Context, pref string, on time.Time) (*model.MinimumPay, error) {
	var pay model.MinimumPay
	err := r.db.WithContext(ctx).
		Where("pref = ? AND is_active = ? AND start_date <= ?", pref, true, model.DateOnly(on)).
		Order("start_date DESC").
		Take(&pay).Error
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	var user model.AppUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*model.AppUser, error) {
	var user model.AppUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) TouchUserLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.AppUser{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// ClientConnectedTenants lists the tenants that approved email to see their
// contracts with the client entity corporateNumber.
func (r *Repository) ClientConnectedTenants(ctx context.Context, corporateNumber, email string) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ConnectClient{}).
		Where("corporate_number = ? AND email = ? AND status = ?", corporateNumber, email, model.ConnectApproved).
		Distinct().
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

func (r *Repository) IsClientConnected(ctx context.Context, tenantID uuid.UUID, corporateNumber, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ConnectClient{}).
		Where("tenant_id = ? AND corporate_number = ? AND email = ? AND status = ?",
			tenantID, corporateNumber, email, model.ConnectApproved).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) StaffConnectedTenants(ctx context.Context, email string) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ConnectStaff{}).
		Where("email = ? AND status = ?", email, model.ConnectApproved).
		Distinct().
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

func (r *Repository) IsStaffConnected(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ConnectStaff{}).
		Where("tenant_id = ? AND email = ? AND status = ?", tenantID, email, model.ConnectApproved).
		Count(&count).Error
	return count > 0, err
}

// UpsertBank inserts or renames the bank identified by code.
func (r *Repository) UpsertBank(ctx context.Context, bank *model.Bank) error {
	db := r.db.WithContext(ctx)
	var existing model.Bank
	err := db.Where("tenant_id = ? AND code = ?", bank.TenantID, bank.Code).Take(&existing).Error
	if IsNotFound(err) {
		return db.Create(bank).Error
	}
	if err != nil {
		return err
	}
	bank.ID = existing.ID
	return db.Model(&existing).Updates(map[string]interface{}{
		"name":      bank.Name,
		"name_kana": bank.NameKana,
		"version":   gorm.Expr("version + 1"),
	}).Error
}

func (r *Repository) GetBankByCode(ctx context.Context, tenantID uuid.UUID, code string) (*model.Bank, error) {
	var bank model.Bank
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND code = ?", tenantID, code).Take(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

// UpsertBankBranch inserts or renames the branch identified by (bank, code).
func (r *Repository) UpsertBankBranch(ctx context.Context, branch *model.BankBranch) error {
	db := r.db.WithContext(ctx)
	var existing model.BankBranch
	err := db.Where("tenant_id = ? AND bank_id = ? AND code = ?", branch.TenantID, branch.BankID, branch.Code).
		Take(&existing).Error
	if IsNotFound(err) {
		return db.Create(branch).Error
	}
	if err != nil {
		return err
	}
	branch.ID = existing.ID
	return db.Model(&existing).Updates(map[string]interface{}{
		"name":      branch.Name,
		"name_kana": branch.NameKana,
		"version":   gorm.Expr("version + 1"),
	}).Error
}

// UpsertStaff inserts the worker or refreshes the imported columns of the
// worker with the same employee number.
func (r *Repository) UpsertStaff(ctx context.Context, staff *model.Staff) error {
	db := r.db.WithContext(ctx)
	var existing model.Staff
	err := db.Where("tenant_id = ? AND employee_no = ?", staff.TenantID, staff.EmployeeNo).Take(&existing).Error
	if IsNotFound(err) {
		return db.Omit(clause.Associations).Create(staff).Error
	}
	if err != nil {
		return err
	}
	staff.ID = existing.ID
	return db.Model(&existing).Updates(map[string]interface{}{
		"name":        staff.Name,
		"name_kana":   staff.NameKana,
		"email":       staff.Email,
		"birth_date":  staff.BirthDate,
		"sex":         staff.Sex,
		"postal_code": staff.PostalCode,
		"address":     staff.Address,
		"phone":       staff.Phone,
		"hire_date":   staff.HireDate,
		"version":     gorm.Expr("version + 1"),
	}).Error
}
