package model

import "time"

// AssignedWorker is one worker row printed on dispatch notifications.
type AssignedWorker struct {
	Name         string
	NameKana     string
	Sex          string
	IsFixedTerm  bool
	IsSenior     bool
	Period       Period
	ConflictDate *time.Time
}

type ClientContractDocument struct {
	Title     string
	Company   Company
	Contract  ClientContract
	Terms     []ContractTerm
	Workers   []AssignedWorker
	Watermark string
	IssuedAt  time.Time
}

type StaffContractDocument struct {
	Title     string
	Company   Company
	Contract  StaffContract
	Terms     []ContractTerm
	Watermark string
	IssuedAt  time.Time
}

// EmploymentConditionsDocument is the per-assignment statement of dispatch
// working conditions handed to the worker.
type EmploymentConditionsDocument struct {
	Title        string
	Company      Company
	Client       ClientContract
	Staff        StaffContract
	Period       Period
	ConflictDate *time.Time
	Terms        []ContractTerm
	Watermark    string
	IssuedAt     time.Time
}
