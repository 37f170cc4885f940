package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/haken-contracts/internal/model"
)

func (r *Repository) GetTeishokubi(ctx context.Context, tenantID uuid.UUID, key model.TeishokubiKey) (*model.StaffContractTeishokubi, error) {
	var record model.StaffContractTeishokubi
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("assignment_start_date ASC")
		}).
		Where("tenant_id = ? AND staff_email = ? AND client_corporate_number = ? AND organization_name = ?",
			tenantID, key.StaffEmail, key.ClientCorporateNumber, key.OrganizationName).
		Take(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListManualTeishokubiDetails returns the out-of-band slices recorded for key.
func (r *Repository) ListManualTeishokubiDetails(ctx context.Context, tenantID uuid.UUID, key model.TeishokubiKey) ([]model.StaffContractTeishokubiDetail, error) {
	var details []model.StaffContractTeishokubiDetail
	err := r.db.WithContext(ctx).
		Joins("JOIN apps_contract_staff_teishokubi t ON t.id = apps_contract_staff_teishokubi_detail.teishokubi_id").
		Where("t.tenant_id = ? AND t.staff_email = ? AND t.client_corporate_number = ? AND t.organization_name = ?",
			tenantID, key.StaffEmail, key.ClientCorporateNumber, key.OrganizationName).
		Where("apps_contract_staff_teishokubi_detail.is_manual = ?", true).
		Order("apps_contract_staff_teishokubi_detail.assignment_start_date ASC").
		Find(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

// SaveTeishokubi upserts the record on its key and replaces its calculated
// detail rows. Manual rows survive; only their is_calculated flag is rewritten.
func (r *Repository) SaveTeishokubi(ctx context.Context, record *model.StaffContractTeishokubi, details []model.StaffContractTeishokubiDetail) error {
	db := r.db.WithContext(ctx)

	var existing model.StaffContractTeishokubi
	err := db.Where("tenant_id = ? AND staff_email = ? AND client_corporate_number = ? AND organization_name = ?",
		record.TenantID, record.StaffEmail, record.ClientCorporateNumber, record.OrganizationName).
		Take(&existing).Error
	switch {
	case IsNotFound(err):
		if err := db.Omit(clause.Associations).Create(record).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		record.ID = existing.ID
		record.Version = existing.Version + 1
		record.CreatedAt = existing.CreatedAt
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"dispatch_start_date": record.DispatchStartDate,
			"conflict_date":       record.ConflictDate,
			"version":             record.Version,
		}).Error; err != nil {
			return err
		}
	}

	if err := db.Where("teishokubi_id = ? AND is_manual = ?", record.ID, false).
		Delete(&model.StaffContractTeishokubiDetail{}).Error; err != nil {
		return err
	}

	for i := range details {
		d := &details[i]
		d.TeishokubiID = record.ID
		d.TenantID = record.TenantID
		if d.IsManual && d.ID != uuid.Nil {
			if err := db.Model(&model.StaffContractTeishokubiDetail{}).
				Where("id = ?", d.ID).
				Update("is_calculated", d.IsCalculated).Error; err != nil {
				return err
			}
			continue
		}
		d.ID = uuid.Nil
		if err := db.Create(d).Error; err != nil {
			return err
		}
	}
	record.Details = details
	return nil
}

// DeleteTeishokubi removes the record of key with all its detail rows.
func (r *Repository) DeleteTeishokubi(ctx context.Context, tenantID uuid.UUID, key model.TeishokubiKey) error {
	db := r.db.WithContext(ctx)
	var record model.StaffContractTeishokubi
	err := db.Where("tenant_id = ? AND staff_email = ? AND client_corporate_number = ? AND organization_name = ?",
		tenantID, key.StaffEmail, key.ClientCorporateNumber, key.OrganizationName).
		Take(&record).Error
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := db.Where("teishokubi_id = ?", record.ID).Delete(&model.StaffContractTeishokubiDetail{}).Error; err != nil {
		return err
	}
	return db.Delete(&record).Error
}

type TeishokubiFilter struct {
	StaffEmail            string
	ClientCorporateNumber string
	Limit                 int
	Offset                int
}

func (r *Repository) ListTeishokubi(ctx context.Context, tenantID uuid.UUID, filter TeishokubiFilter) ([]model.StaffContractTeishokubi, error) {
	query := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("assignment_start_date ASC")
		}).
		Where("tenant_id = ?", tenantID)
	if filter.StaffEmail != "" {
		query = query.Where("staff_email = ?", filter.StaffEmail)
	}
	if filter.ClientCorporateNumber != "" {
		query = query.Where("client_corporate_number = ?", filter.ClientCorporateNumber)
	}

	var records []model.StaffContractTeishokubi
	if err := paginate(query.Order("conflict_date ASC, staff_email ASC"), filter.Limit, filter.Offset).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
