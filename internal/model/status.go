package model

type ContractStatus string

const (
	StatusDraft     ContractStatus = "1"
	StatusPending   ContractStatus = "5"
	StatusApproved  ContractStatus = "10"
	StatusIssued    ContractStatus = "20"
	StatusConfirmed ContractStatus = "30"
)

var statusRank = map[ContractStatus]int{
	StatusDraft:     1,
	StatusPending:   2,
	StatusApproved:  3,
	StatusIssued:    4,
	StatusConfirmed: 5,
}

var statusNames = map[ContractStatus]string{
	StatusDraft:     "作成中",
	StatusPending:   "申請中",
	StatusApproved:  "承認済",
	StatusIssued:    "発行済",
	StatusConfirmed: "確認済",
}

// transitions is the only place legal status moves are declared.
var transitions = map[ContractStatus][]ContractStatus{
	StatusDraft:    {StatusPending},
	StatusPending:  {StatusApproved},
	StatusApproved: {StatusDraft, StatusIssued},
	StatusIssued:   {StatusConfirmed},
}

func (s ContractStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s ContractStatus) Label() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return string(s)
}

// AtLeast reports whether s is at or beyond other in the lifecycle.
func (s ContractStatus) AtLeast(other ContractStatus) bool {
	return statusRank[s] >= statusRank[other]
}

func CanTransition(from, to ContractStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ContractTypeCode string

const (
	ContractTypeQuasiMandate ContractTypeCode = "10"
	ContractTypeDispatch     ContractTypeCode = "20"
	ContractTypeContract     ContractTypeCode = "30"
	ContractTypeIntroduction ContractTypeCode = "40"
)

func (c ContractTypeCode) Valid() bool {
	switch c {
	case ContractTypeQuasiMandate, ContractTypeDispatch, ContractTypeContract, ContractTypeIntroduction:
		return true
	}
	return false
}

func (c ContractTypeCode) Label() string {
	switch c {
	case ContractTypeQuasiMandate:
		return "準委任"
	case ContractTypeDispatch:
		return "派遣"
	case ContractTypeContract:
		return "請負"
	case ContractTypeIntroduction:
		return "職業紹介"
	}
	return string(c)
}

type PayUnit string

const (
	PayUnitHourly  PayUnit = "10"
	PayUnitDaily   PayUnit = "20"
	PayUnitMonthly PayUnit = "30"
)

func (u PayUnit) Valid() bool {
	return u.Label() != ""
}

func (u PayUnit) Label() string {
	switch u {
	case PayUnitHourly:
		return "時給"
	case PayUnitDaily:
		return "日給"
	case PayUnitMonthly:
		return "月給"
	}
	return ""
}

type PrintType string

const (
	PrintTypeContract               PrintType = "10"
	PrintTypeQuotation              PrintType = "20"
	PrintTypeTeishokubiNotification PrintType = "30"
	PrintTypeDispatchNotification   PrintType = "40"
	PrintTypeEmploymentConditions   PrintType = "50"
)

// PatternDomain separates contract patterns usable for clients from those for staff.
type PatternDomain string

const (
	PatternDomainStaff  PatternDomain = "1"
	PatternDomainClient PatternDomain = "10"
)
