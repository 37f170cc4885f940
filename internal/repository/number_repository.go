package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/haken-contracts/internal/model"
)

// NextClientNumber increments and returns the counter of (code, yearMonth)
// under a row lock. It must run inside a transaction.
func (r *Repository) NextClientNumber(ctx context.Context, tenantID uuid.UUID, code, yearMonth string) (int, error) {
	db := r.db.WithContext(ctx)
	seed := model.ClientContractNumber{TenantID: tenantID, ClientCode: code, YearMonth: yearMonth}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var row model.ClientContractNumber
	err := forUpdate(db).
		Where("tenant_id = ? AND client_code = ? AND year_month = ?", tenantID, code, yearMonth).
		Take(&row).Error
	if err != nil {
		return 0, err
	}
	return bumpNumber(db, &row, row.ID, row.LastNumber)
}

// NextStaffNumber is NextClientNumber keyed by employee number.
func (r *Repository) NextStaffNumber(ctx context.Context, tenantID uuid.UUID, employeeNo, yearMonth string) (int, error) {
	db := r.db.WithContext(ctx)
	seed := model.StaffContractNumber{TenantID: tenantID, EmployeeNo: employeeNo, YearMonth: yearMonth}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var row model.StaffContractNumber
	err := forUpdate(db).
		Where("tenant_id = ? AND employee_no = ? AND year_month = ?", tenantID, employeeNo, yearMonth).
		Take(&row).Error
	if err != nil {
		return 0, err
	}
	return bumpNumber(db, &row, row.ID, row.LastNumber)
}

func bumpNumber(db *gorm.DB, row interface{}, id uuid.UUID, last int) (int, error) {
	next := last + 1
	if err := db.Model(row).Where("id = ?", id).Update("last_number", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// SavePoint and RollbackTo allow a single statement to be retried without
// aborting the surrounding transaction.
func (r *Repository) SavePoint(name string) error {
	return r.db.SavePoint(name).Error
}

func (r *Repository) RollbackTo(name string) error {
	return r.db.RollbackTo(name).Error
}
