package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/haken-contracts/internal/model"
)

type ContractFilter struct {
	ClientID *uuid.UUID
	StaffID  *uuid.UUID
	Statuses []model.ContractStatus
	Query    string
	// ActiveOn keeps contracts whose period contains the date.
	ActiveOn *time.Time
	Limit    int
	Offset   int
}

func withClientContractDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Client").
		Preload("JobCategory").
		Preload("PaymentSite").
		Preload("ContractPattern.Terms", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Haken.HakenOffice").
		Preload("Haken.HakenUnit").
		Preload("Haken.Ttp")
}

func withStaffContractDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Staff.International").
		Preload("EmploymentType").
		Preload("JobCategory").
		Preload("ContractPattern.Terms", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		})
}

// CreateClientContract inserts the contract and its dispatch/TTP extensions.
// Call it inside a transaction.
func (r *Repository) CreateClientContract(ctx context.Context, contract *model.ClientContract) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(contract).Error; err != nil {
		return err
	}
	if contract.Haken == nil {
		return nil
	}
	contract.Haken.ClientContractID = contract.ID
	contract.Haken.TenantID = contract.TenantID
	return r.CreateHaken(ctx, contract.Haken)
}

func (r *Repository) CreateHaken(ctx context.Context, haken *model.ClientContractHaken) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(haken).Error; err != nil {
		return err
	}
	if haken.Ttp == nil {
		return nil
	}
	haken.Ttp.HakenID = haken.ID
	haken.Ttp.TenantID = haken.TenantID
	return db.Omit(clause.Associations).Create(haken.Ttp).Error
}

func (r *Repository) GetClientContract(ctx context.Context, tenantID, id uuid.UUID) (*model.ClientContract, error) {
	var contract model.ClientContract
	err := withClientContractDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetClientContractAnyTenant is used by the confirmation channel, whose
// actors are not bound to a tenant.
func (r *Repository) GetClientContractAnyTenant(ctx context.Context, id uuid.UUID) (*model.ClientContract, error) {
	var contract model.ClientContract
	err := withClientContractDetails(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// LockClientContract takes a row lock held until the surrounding transaction ends.
func (r *Repository) LockClientContract(ctx context.Context, tenantID, id uuid.UUID) error {
	var row model.ClientContract
	return forUpdate(r.db.WithContext(ctx)).
		Select("id").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&row).Error
}

func (r *Repository) SaveClientContract(ctx context.Context, contract *model.ClientContract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(contract).Error
}

func (r *Repository) SaveHaken(ctx context.Context, haken *model.ClientContractHaken) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(haken).Error
}

func (r *Repository) SaveTtp(ctx context.Context, ttp *model.ClientContractTtp) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(ttp).Error
}

func (r *Repository) DeleteTtp(ctx context.Context, hakenID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("haken_id = ?", hakenID).Delete(&model.ClientContractTtp{}).Error
}

func (r *Repository) DeleteHaken(ctx context.Context, contractID uuid.UUID) error {
	var haken model.ClientContractHaken
	err := r.db.WithContext(ctx).Where("client_contract_id = ?", contractID).Take(&haken).Error
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.DeleteTtp(ctx, haken.ID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&haken).Error
}

// DeleteClientContract removes the contract together with everything it owns
// and the assignment edges pointing at it.
func (r *Repository) DeleteClientContract(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := r.DeleteHaken(ctx, id); err != nil {
		return err
	}
	if err := db.Where("client_contract_id = ?", id).Delete(&model.ClientContractPrint{}).Error; err != nil {
		return err
	}
	if err := db.Where("client_contract_id = ?", id).Delete(&model.ContractAssignment{}).Error; err != nil {
		return err
	}
	res := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.ClientContract{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListClientContracts(ctx context.Context, tenantID uuid.UUID, filter ContractFilter) ([]model.ClientContract, error) {
	query := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Haken.HakenUnit").
		Where("tenant_id = ?", tenantID)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	query = applyContractFilter(query, filter)

	var contracts []model.ClientContract
	if err := paginate(query.Order("start_date DESC, created_at DESC"), filter.Limit, filter.Offset).
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListClientContractsForConnect returns contracts of the given tenant whose
// client carries corporateNumber.
func (r *Repository) ListClientContractsForConnect(
	ctx context.Context,
	tenantID uuid.UUID,
	corporateNumber string,
	statuses []model.ContractStatus,
) ([]model.ClientContract, error) {
	var contracts []model.ClientContract
	err := r.db.WithContext(ctx).
		Preload("Client").
		Joins("JOIN apps_client ON apps_client.id = apps_contract_client.client_id").
		Where("apps_contract_client.tenant_id = ? AND apps_client.corporate_number = ?", tenantID, corporateNumber).
		Where("apps_contract_client.contract_status IN ?", statuses).
		Order("apps_contract_client.start_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *Repository) CreateStaffContract(ctx context.Context, contract *model.StaffContract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(contract).Error
}

func (r *Repository) GetStaffContract(ctx context.Context, tenantID, id uuid.UUID) (*model.StaffContract, error) {
	var contract model.StaffContract
	err := withStaffContractDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *Repository) GetStaffContractAnyTenant(ctx context.Context, id uuid.UUID) (*model.StaffContract, error) {
	var contract model.StaffContract
	err := withStaffContractDetails(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *Repository) LockStaffContract(ctx context.Context, tenantID, id uuid.UUID) error {
	var row model.StaffContract
	return forUpdate(r.db.WithContext(ctx)).
		Select("id").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&row).Error
}

func (r *Repository) SaveStaffContract(ctx context.Context, contract *model.StaffContract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(contract).Error
}

func (r *Repository) DeleteStaffContract(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("staff_contract_id = ?", id).Delete(&model.StaffContractPrint{}).Error; err != nil {
		return err
	}
	if err := db.Where("staff_contract_id = ?", id).Delete(&model.ContractAssignment{}).Error; err != nil {
		return err
	}
	res := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.StaffContract{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListStaffContracts(ctx context.Context, tenantID uuid.UUID, filter ContractFilter) ([]model.StaffContract, error) {
	query := r.db.WithContext(ctx).
		Preload("Staff").
		Preload("EmploymentType").
		Where("tenant_id = ?", tenantID)
	if filter.StaffID != nil {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}
	query = applyContractFilter(query, filter)

	var contracts []model.StaffContract
	if err := paginate(query.Order("start_date DESC, created_at DESC"), filter.Limit, filter.Offset).
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListStaffContractsByEmail lists one tenant's contracts of the worker with the given email.
func (r *Repository) ListStaffContractsByEmail(
	ctx context.Context,
	tenantID uuid.UUID,
	email string,
	statuses []model.ContractStatus,
) ([]model.StaffContract, error) {
	var contracts []model.StaffContract
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Joins("JOIN apps_staff ON apps_staff.id = apps_contract_staff.staff_id").
		Where("apps_contract_staff.tenant_id = ? AND apps_staff.email = ?", tenantID, email).
		Where("apps_contract_staff.contract_status IN ?", statuses).
		Order("apps_contract_staff.start_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func applyContractFilter(query *gorm.DB, filter ContractFilter) *gorm.DB {
	if len(filter.Statuses) > 0 {
		query = query.Where("contract_status IN ?", filter.Statuses)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("(contract_name LIKE ? OR contract_number LIKE ?)", like, like)
	}
	if filter.ActiveOn != nil {
		on := model.DateOnly(*filter.ActiveOn)
		query = query.Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", on, on)
	}
	return query
}

// UpdateClientContractColumns writes the given columns without touching the
// version or authorship.
func (r *Repository) UpdateClientContractColumns(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ClientContract{}).Where("id = ?", id).UpdateColumns(columns).Error
}

func (r *Repository) UpdateHakenColumns(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ClientContractHaken{}).Where("id = ?", id).UpdateColumns(columns).Error
}

func (r *Repository) UpdateStaffContractColumns(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.StaffContract{}).Where("id = ?", id).UpdateColumns(columns).Error
}
