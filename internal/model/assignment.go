package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContractAssignment binds one client contract to one staff contract.
type ContractAssignment struct {
	Base
	ClientContractID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_pair,priority:1"`
	ClientContract      *ClientContract `gorm:"foreignKey:ClientContractID"`
	StaffContractID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_pair,priority:2"`
	StaffContract       *StaffContract  `gorm:"foreignKey:StaffContractID"`
	AssignedAt          time.Time       `gorm:"not null"`
	AssignmentStartDate *time.Time      `gorm:"type:date"`
	AssignmentEndDate   *time.Time      `gorm:"type:date"`
}

func (ContractAssignment) TableName() string { return "apps_contract_assignment" }

func (a ContractAssignment) AuditModel() string { return "ContractAssignment" }

func (a ContractAssignment) String() string {
	return fmt.Sprintf("%s - %s", a.ClientContractID, a.StaffContractID)
}

// EffectivePeriod is the intersection of both contracts narrowed by the
// assignment's own dates. Both contracts must be loaded.
func (a *ContractAssignment) EffectivePeriod() (Period, bool) {
	if a.ClientContract == nil || a.StaffContract == nil {
		return Period{}, false
	}
	p, ok := a.ClientContract.Period().Intersect(a.StaffContract.Period())
	if !ok {
		return Period{}, false
	}
	return p.Intersect(a.OverridePeriod(p))
}

// OverridePeriod returns the assignment's own bounds, defaulting to base.
func (a *ContractAssignment) OverridePeriod(base Period) Period {
	o := base
	if a.AssignmentStartDate != nil {
		o.Start = DateOnly(*a.AssignmentStartDate)
	}
	if a.AssignmentEndDate != nil {
		o.End = DatePtr(*a.AssignmentEndDate)
	}
	return o
}
