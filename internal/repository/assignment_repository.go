package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/haken-contracts/internal/model"
)

type AssignmentFilter struct {
	ClientContractID *uuid.UUID
	StaffContractID  *uuid.UUID
	// From and To select assignments whose contracts overlap the range.
	From *time.Time
	To   *time.Time
}

func withAssignmentDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("ClientContract.Client").
		Preload("ClientContract.JobCategory").
		Preload("ClientContract.Haken.HakenOffice").
		Preload("ClientContract.Haken.HakenUnit").
		Preload("ClientContract.Haken.Ttp").
		Preload("StaffContract.Staff.International").
		Preload("StaffContract.EmploymentType").
		Preload("StaffContract.JobCategory").
		Preload("StaffContract.ContractPattern.Terms", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		})
}

func (r *Repository) AssignmentExists(ctx context.Context, clientContractID, staffContractID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ContractAssignment{}).
		Where("client_contract_id = ? AND staff_contract_id = ?", clientContractID, staffContractID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateAssignment(ctx context.Context, assignment *model.ContractAssignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

func (r *Repository) GetAssignment(ctx context.Context, tenantID, id uuid.UUID) (*model.ContractAssignment, error) {
	var assignment model.ContractAssignment
	err := withAssignmentDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *Repository) DeleteAssignment(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("assignment_id = ?", id).Delete(&model.ContractAssignmentPrint{}).Error; err != nil {
		return err
	}
	res := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.ContractAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CountClientContractAssignments(ctx context.Context, clientContractID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ContractAssignment{}).
		Where("client_contract_id = ?", clientContractID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountStaffContractAssignments(ctx context.Context, staffContractID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ContractAssignment{}).
		Where("staff_contract_id = ?", staffContractID).
		Count(&count).Error
	return count, err
}

func (r *Repository) ListAssignments(ctx context.Context, tenantID uuid.UUID, filter AssignmentFilter) ([]model.ContractAssignment, error) {
	query := withAssignmentDetails(r.db.WithContext(ctx)).
		Where("apps_contract_assignment.tenant_id = ?", tenantID)
	if filter.ClientContractID != nil {
		query = query.Where("apps_contract_assignment.client_contract_id = ?", *filter.ClientContractID)
	}
	if filter.StaffContractID != nil {
		query = query.Where("apps_contract_assignment.staff_contract_id = ?", *filter.StaffContractID)
	}
	if filter.From != nil || filter.To != nil {
		query = query.Joins("JOIN apps_contract_client cc ON cc.id = apps_contract_assignment.client_contract_id")
		if filter.From != nil {
			query = query.Where("(cc.end_date IS NULL OR cc.end_date >= ?)", model.DateOnly(*filter.From))
		}
		if filter.To != nil {
			query = query.Where("cc.start_date <= ?", model.DateOnly(*filter.To))
		}
	}

	var assignments []model.ContractAssignment
	if err := query.Order("apps_contract_assignment.assigned_at ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListAssignmentsForTeishokubi returns every dispatch assignment of the worker
// at the organization unit of the client entity named by key.
func (r *Repository) ListAssignmentsForTeishokubi(
	ctx context.Context,
	tenantID uuid.UUID,
	key model.TeishokubiKey,
) ([]model.ContractAssignment, error) {
	var assignments []model.ContractAssignment
	err := withAssignmentDetails(r.db.WithContext(ctx)).
		Joins("JOIN apps_contract_client cc ON cc.id = apps_contract_assignment.client_contract_id").
		Joins("JOIN apps_client c ON c.id = cc.client_id").
		Joins("JOIN apps_contract_client_haken h ON h.client_contract_id = cc.id").
		Joins("JOIN apps_client_department unit ON unit.id = h.haken_unit_id").
		Joins("JOIN apps_contract_staff sc ON sc.id = apps_contract_assignment.staff_contract_id").
		Joins("JOIN apps_staff s ON s.id = sc.staff_id").
		Where("apps_contract_assignment.tenant_id = ?", tenantID).
		Where("cc.client_contract_type_code = ?", model.ContractTypeDispatch).
		Where("COALESCE(NULLIF(c.corporate_number, ''), cc.corporate_number) = ?", key.ClientCorporateNumber).
		Where("unit.name = ?", key.OrganizationName).
		Where("s.email = ?", key.StaffEmail).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
