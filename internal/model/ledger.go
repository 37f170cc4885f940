package model

import (
	"time"

	"github.com/google/uuid"
)

// LedgerRow is one assignment line of the dispatch ledger export.
type LedgerRow struct {
	AssignmentID         uuid.UUID
	EmployeeNo           string
	StaffName            string
	ClientName           string
	ContractName         string
	ContractType         ContractTypeCode
	ClientContractNumber string
	StaffContractNumber  string
	OrganizationName     string
	WorkLocation         string
	StartDate            time.Time
	EndDate              *time.Time
	IsFixedTerm          bool
	ConflictDate         *time.Time
}

type AssignmentLedger struct {
	From time.Time
	To   time.Time
	Rows []LedgerRow
}

type TeishokubiList struct {
	GeneratedAt time.Time
	Records     []StaffContractTeishokubi
}
