package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClientContractPrint is an immutable issuance record. ContractNumber is the
// number as of issuance and is never rewritten.
type ClientContractPrint struct {
	Base
	ClientContractID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PrintType        PrintType  `gorm:"size:2;not null"`
	PrintedAt        time.Time  `gorm:"not null"`
	PrintedBy        *uuid.UUID `gorm:"type:uuid"`
	DocumentTitle    string     `gorm:"size:255"`
	PDFPath          string     `gorm:"size:500;not null"`
	FileName         string     `gorm:"size:255"`
	ContractNumber   string     `gorm:"size:50"`
}

func (ClientContractPrint) TableName() string { return "apps_contract_client_print" }

func (p ClientContractPrint) AuditModel() string { return "ClientContractPrint" }

func (p ClientContractPrint) String() string {
	return fmt.Sprintf("%s %s", p.DocumentTitle, p.ContractNumber)
}

type StaffContractPrint struct {
	Base
	StaffContractID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PrintType       PrintType  `gorm:"size:2;not null"`
	PrintedAt       time.Time  `gorm:"not null"`
	PrintedBy       *uuid.UUID `gorm:"type:uuid"`
	DocumentTitle   string     `gorm:"size:255"`
	PDFPath         string     `gorm:"size:500;not null"`
	FileName        string     `gorm:"size:255"`
	ContractNumber  string     `gorm:"size:50"`
}

func (StaffContractPrint) TableName() string { return "apps_contract_staff_print" }

func (p StaffContractPrint) AuditModel() string { return "StaffContractPrint" }

func (p StaffContractPrint) String() string {
	return fmt.Sprintf("%s %s", p.DocumentTitle, p.ContractNumber)
}

// ContractAssignmentPrint records assignment-scoped documents such as the
// employment-conditions statement.
type ContractAssignmentPrint struct {
	Base
	AssignmentID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	PrintType     PrintType  `gorm:"size:2;not null"`
	PrintedAt     time.Time  `gorm:"not null"`
	PrintedBy     *uuid.UUID `gorm:"type:uuid"`
	DocumentTitle string     `gorm:"size:255"`
	PDFPath       string     `gorm:"size:500;not null"`
	FileName      string     `gorm:"size:255"`
	ConflictDate  *time.Time `gorm:"type:date"`
}

func (ContractAssignmentPrint) TableName() string { return "apps_contract_assignment_print" }

func (p ContractAssignmentPrint) AuditModel() string { return "ContractAssignmentPrint" }

func (p ContractAssignmentPrint) String() string {
	return p.DocumentTitle
}

// PrintBlobName is the storage key of a print. The print row's ID keeps it
// unique when the same document is issued twice within one second.
func PrintBlobName(printID uuid.UUID, fileName string) string {
	return printID.String() + "_" + fileName
}

// PrintFileName builds <kind>_<pk>_<YYYYMMDD>_<HHMMSS>.pdf.
func PrintFileName(kind string, id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.pdf", kind, id, at.Format("20060102_150405"))
}
