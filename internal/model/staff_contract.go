package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StaffContract is an employment contract between the staffing company and a worker.
type StaffContract struct {
	Base
	StaffID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Staff             *Staff              `gorm:"foreignKey:StaffID"`
	EmploymentTypeID  *uuid.UUID          `gorm:"type:uuid"`
	EmploymentType    *EmploymentType     `gorm:"foreignKey:EmploymentTypeID"`
	IsFixedTerm       bool                `gorm:"not null;default:false"`
	CorporateNumber   string              `gorm:"size:13"`
	ContractName      string              `gorm:"size:255;not null"`
	JobCategoryID     *uuid.UUID          `gorm:"type:uuid"`
	JobCategory       *JobCategory        `gorm:"foreignKey:JobCategoryID"`
	ContractPatternID *uuid.UUID          `gorm:"type:uuid"`
	ContractPattern   *ContractPattern    `gorm:"foreignKey:ContractPatternID"`
	ContractNumber    *string             `gorm:"size:50"`
	ContractStatus    ContractStatus      `gorm:"size:2;not null;index"`
	StartDate         time.Time           `gorm:"type:date;not null;index"`
	EndDate           *time.Time          `gorm:"type:date;index"`
	ContractAmount    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	PayUnit           PayUnit             `gorm:"size:2"`
	WorkLocation      string              `gorm:"type:text"`
	BusinessContent   string              `gorm:"type:text"`
	Notes             string              `gorm:"type:text"`

	ApprovedAt  *time.Time
	ApprovedBy  *uuid.UUID `gorm:"type:uuid"`
	IssuedAt    *time.Time
	IssuedBy    *uuid.UUID `gorm:"type:uuid"`
	ConfirmedAt *time.Time
}

func (StaffContract) TableName() string { return "apps_contract_staff" }

func (c StaffContract) AuditModel() string { return "StaffContract" }

func (c StaffContract) String() string {
	return fmt.Sprintf("%s (%s)", c.ContractName, c.ContractStatus.Label())
}

func (c *StaffContract) Period() Period {
	return Period{Start: c.StartDate, End: c.EndDate}
}

func (c *StaffContract) Number() string {
	if c.ContractNumber == nil {
		return ""
	}
	return *c.ContractNumber
}

func (c *StaffContract) EmployeeNo() string {
	if c.Staff == nil {
		return ""
	}
	return c.Staff.EmployeeNo
}

func (c *StaffContract) IsApprovedOrLater() bool {
	return c.ContractStatus.AtLeast(StatusApproved)
}
