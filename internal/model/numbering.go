package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientContractNumber is the allocator row for one client per month.
type ClientContractNumber struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_client_number,priority:1"`
	ClientCode string    `gorm:"size:20;not null;uniqueIndex:uq_client_number,priority:2"`
	YearMonth  string    `gorm:"size:6;not null;uniqueIndex:uq_client_number,priority:3"`
	LastNumber int       `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ClientContractNumber) TableName() string { return "apps_contract_client_number" }

func (n *ClientContractNumber) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// StaffContractNumber is the allocator row for one employee per month.
type StaffContractNumber struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_staff_number,priority:1"`
	EmployeeNo string    `gorm:"size:20;not null;uniqueIndex:uq_staff_number,priority:2"`
	YearMonth  string    `gorm:"size:6;not null;uniqueIndex:uq_staff_number,priority:3"`
	LastNumber int       `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (StaffContractNumber) TableName() string { return "apps_contract_staff_number" }

func (n *StaffContractNumber) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func YearMonth(t time.Time) string {
	return t.Format("200601")
}

// FormatContractNumber renders <code>-<YYYYMM>-<NNNN>.
func FormatContractNumber(code, yearMonth string, n int) string {
	return fmt.Sprintf("%s-%s-%04d", code, yearMonth, n)
}
