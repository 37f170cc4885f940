package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeishokubiKey identifies one worker at one organization unit of one client entity.
type TeishokubiKey struct {
	StaffEmail            string
	ClientCorporateNumber string
	OrganizationName      string
}

func (k TeishokubiKey) Valid() bool {
	return k.StaffEmail != "" && k.ClientCorporateNumber != "" && k.OrganizationName != ""
}

func (k TeishokubiKey) String() string {
	return fmt.Sprintf("%s / %s / %s", k.StaffEmail, k.ClientCorporateNumber, k.OrganizationName)
}

// StaffContractTeishokubi is a worker's personal conflict date at an organization unit.
type StaffContractTeishokubi struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_teishokubi_key,priority:1"`
	StaffEmail            string    `gorm:"size:255;not null;uniqueIndex:uq_teishokubi_key,priority:2"`
	ClientCorporateNumber string    `gorm:"size:13;not null;uniqueIndex:uq_teishokubi_key,priority:3"`
	OrganizationName      string    `gorm:"size:255;not null;uniqueIndex:uq_teishokubi_key,priority:4"`
	DispatchStartDate     time.Time `gorm:"type:date;not null"`
	ConflictDate          time.Time `gorm:"type:date;not null"`
	Version               int       `gorm:"not null"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Details []StaffContractTeishokubiDetail `gorm:"foreignKey:TeishokubiID"`
}

func (StaffContractTeishokubi) TableName() string { return "apps_contract_staff_teishokubi" }

func (t *StaffContractTeishokubi) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

func (t StaffContractTeishokubi) Key() TeishokubiKey {
	return TeishokubiKey{
		StaffEmail:            t.StaffEmail,
		ClientCorporateNumber: t.ClientCorporateNumber,
		OrganizationName:      t.OrganizationName,
	}
}

// StaffContractTeishokubiDetail is one slice that fed the calculation.
type StaffContractTeishokubiDetail struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	TeishokubiID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssignmentID        *uuid.UUID `gorm:"type:uuid;index"`
	ClientContractID    *uuid.UUID `gorm:"type:uuid"`
	StaffContractID     *uuid.UUID `gorm:"type:uuid"`
	AssignmentStartDate time.Time  `gorm:"type:date;not null"`
	AssignmentEndDate   *time.Time `gorm:"type:date"`
	IsCalculated        bool       `gorm:"not null;default:false"`
	IsManual            bool       `gorm:"not null;default:false"`
	CreatedAt           time.Time
	CreatedBy           *uuid.UUID `gorm:"type:uuid"`
}

func (StaffContractTeishokubiDetail) TableName() string {
	return "apps_contract_staff_teishokubi_detail"
}

func (d *StaffContractTeishokubiDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (t StaffContractTeishokubi) AuditModel() string { return "StaffContractTeishokubi" }

func (t StaffContractTeishokubi) AuditID() string { return t.ID.String() }

func (t StaffContractTeishokubi) AuditVersion() int { return t.Version }

func (t StaffContractTeishokubi) String() string {
	return fmt.Sprintf("%s 抵触日 %s", t.Key(), t.ConflictDate.Format("2006-01-02"))
}
