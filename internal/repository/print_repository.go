package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/nurpe/haken-contracts/internal/model"
)

func (r *Repository) CreateClientPrint(ctx context.Context, p *model.ClientContractPrint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *Repository) CreateStaffPrint(ctx context.Context, p *model.StaffContractPrint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *Repository) CreateAssignmentPrint(ctx context.Context, p *model.ContractAssignmentPrint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *Repository) GetClientPrint(ctx context.Context, tenantID, id uuid.UUID) (*model.ClientContractPrint, error) {
	var p model.ClientContractPrint
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetClientPrintAnyTenant serves the confirmation channel.
func (r *Repository) GetClientPrintAnyTenant(ctx context.Context, id uuid.UUID) (*model.ClientContractPrint, error) {
	var p model.ClientContractPrint
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetStaffPrint(ctx context.Context, tenantID, id uuid.UUID) (*model.StaffContractPrint, error) {
	var p model.StaffContractPrint
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetAssignmentPrint(ctx context.Context, tenantID, id uuid.UUID) (*model.ContractAssignmentPrint, error) {
	var p model.ContractAssignmentPrint
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListClientPrints(ctx context.Context, tenantID, contractID uuid.UUID) ([]model.ClientContractPrint, error) {
	var prints []model.ClientContractPrint
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_contract_id = ?", tenantID, contractID).
		Order("printed_at DESC").
		Find(&prints).Error
	if err != nil {
		return nil, err
	}
	return prints, nil
}

func (r *Repository) ListStaffPrints(ctx context.Context, tenantID, contractID uuid.UUID) ([]model.StaffContractPrint, error) {
	var prints []model.StaffContractPrint
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND staff_contract_id = ?", tenantID, contractID).
		Order("printed_at DESC").
		Find(&prints).Error
	if err != nil {
		return nil, err
	}
	return prints, nil
}

func (r *Repository) ListAssignmentPrints(ctx context.Context, tenantID, assignmentID uuid.UUID) ([]model.ContractAssignmentPrint, error) {
	var prints []model.ContractAssignmentPrint
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND assignment_id = ?", tenantID, assignmentID).
		Order("printed_at DESC").
		Find(&prints).Error
	if err != nil {
		return nil, err
	}
	return prints, nil
}

// ClientPrintExists reports whether a print of printType was issued for the contract.
func (r *Repository) ClientPrintExists(ctx context.Context, contractID uuid.UUID, printType model.PrintType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ClientContractPrint{}).
		Where("client_contract_id = ? AND print_type = ?", contractID, printType).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) StaffPrintExists(ctx context.Context, contractID uuid.UUID, printType model.PrintType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StaffContractPrint{}).
		Where("staff_contract_id = ? AND print_type = ?", contractID, printType).
		Count(&count).Error
	return count > 0, err
}
