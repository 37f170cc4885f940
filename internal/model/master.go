package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the staffing company operating a tenant.
type Company struct {
	Base
	Name               string `gorm:"size:255;not null"`
	CorporateNumber    string `gorm:"size:13"`
	PostalCode         string `gorm:"size:8"`
	Address            string `gorm:"size:500"`
	Phone              string `gorm:"size:20"`
	RepresentativeName string `gorm:"size:100"`
	DispatchLicenseNo  string `gorm:"size:50"`
}

func (Company) TableName() string { return "apps_company" }

type Client struct {
	Base
	Name            string `gorm:"size:255;not null"`
	NameKana        string `gorm:"size:255"`
	CorporateNumber string `gorm:"size:13;index"`
	PostalCode      string `gorm:"size:8"`
	Address         string `gorm:"size:500"`
	Phone           string `gorm:"size:20"`
}

func (Client) TableName() string { return "apps_client" }

// ClientCode is the allocator prefix: the first eight digits of the corporate number.
func (c *Client) ClientCode() string {
	return ClientCodeFromCorporateNumber(c.CorporateNumber)
}

func ClientCodeFromCorporateNumber(corporateNumber string) string {
	digits := make([]rune, 0, len(corporateNumber))
	for _, r := range corporateNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > 8 {
		digits = digits[:8]
	}
	return string(digits)
}

type ClientDepartment struct {
	Base
	ClientID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name               string     `gorm:"size:255;not null"`
	Address            string     `gorm:"size:500"`
	Phone              string     `gorm:"size:20"`
	IsHakenOffice      bool       `gorm:"not null;default:false"`
	IsOrganizationUnit bool       `gorm:"not null;default:false"`
	OfficeConflictDate *time.Time `gorm:"type:date"`
}

func (ClientDepartment) TableName() string { return "apps_client_department" }

type Staff struct {
	Base
	EmployeeNo    string              `gorm:"size:20;index"`
	Name          string              `gorm:"size:100;not null"`
	NameKana      string              `gorm:"size:100"`
	Email         string              `gorm:"size:255;index"`
	BirthDate     *time.Time          `gorm:"type:date"`
	Sex           string              `gorm:"size:2"`
	PostalCode    string              `gorm:"size:8"`
	Address       string              `gorm:"size:500"`
	Phone         string              `gorm:"size:20"`
	HireDate      *time.Time          `gorm:"type:date"`
	International *StaffInternational `gorm:"foreignKey:StaffID"`
}

func (Staff) TableName() string { return "apps_staff" }

// StaffInternational holds residency data for foreign workers.
type StaffInternational struct {
	Base
	StaffID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Nationality       string    `gorm:"size:100"`
	ResidenceStatus   string    `gorm:"size:100"`
	ResidenceCardNo   string    `gorm:"size:20"`
	ResidencePeriodTo time.Time `gorm:"type:date;not null"`
}

func (StaffInternational) TableName() string { return "apps_staff_international" }

type EmploymentType struct {
	Base
	Name         string `gorm:"size:100;not null"`
	IsFixedTerm  bool   `gorm:"not null;default:false"`
	DisplayOrder int
	IsActive     bool `gorm:"not null"`
}

func (EmploymentType) TableName() string { return "apps_master_employment_type" }

type JobCategory struct {
	Base
	Name                          string `gorm:"size:100;not null"`
	IsSpecifiedSkilledWorker      bool   `gorm:"not null;default:false"`
	IsAgricultureFisheryDispatch  bool   `gorm:"not null;default:false"`
	DisplayOrder                  int
	IsActive                      bool `gorm:"not null"`
}

func (JobCategory) TableName() string { return "apps_master_job_category" }

type ContractPattern struct {
	Base
	Name         string           `gorm:"size:100;not null"`
	Domain       PatternDomain    `gorm:"size:2;not null"`
	ContractType ContractTypeCode `gorm:"size:2"`
	IsActive     bool             `gorm:"not null"`
	Terms        []ContractTerm   `gorm:"foreignKey:ContractPatternID"`
}

func (ContractPattern) TableName() string { return "apps_master_contract_pattern" }

// ContractTerm is one article of a pattern; Body may hold {{placeholders}}.
type ContractTerm struct {
	Base
	ContractPatternID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"size:200"`
	Body              string    `gorm:"type:text"`
	DisplayOrder      int
}

func (ContractTerm) TableName() string { return "apps_master_contract_terms" }

// PaymentSite is the billing cutoff/payment schedule a client contract bills on.
type PaymentSite struct {
	Base
	Name         string `gorm:"size:100;not null"`
	ClosingDay   int
	PaymentMonth int
	PaymentDay   int
}

func (PaymentSite) TableName() string { return "apps_master_bill_payment" }

// Dropdown rows are shared by all tenants.
type Dropdown struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Category     string    `gorm:"size:50;not null;index"`
	Value        string    `gorm:"size:50;not null"`
	Name         string    `gorm:"size:100;not null"`
	DisplayOrder int
	Active       bool `gorm:"not null"`
}

func (Dropdown) TableName() string { return "apps_system_dropdowns" }

func (d *Dropdown) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

const DropdownCategoryPref = "pref"

// MinimumPay is a prefectural minimum hourly wage effective from StartDate.
type MinimumPay struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Pref       string    `gorm:"size:2;not null;index"`
	StartDate  time.Time `gorm:"type:date;not null"`
	HourlyWage int       `gorm:"not null"`
	IsActive   bool      `gorm:"not null"`
}

func (MinimumPay) TableName() string { return "apps_master_minimum_pay" }

func (m *MinimumPay) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Bank struct {
	Base
	Code     string `gorm:"size:4;not null;index"`
	Name     string `gorm:"size:100;not null"`
	NameKana string `gorm:"size:100"`
}

func (Bank) TableName() string { return "apps_master_bank" }

type BankBranch struct {
	Base
	BankID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Code     string    `gorm:"size:3;not null"`
	Name     string    `gorm:"size:100;not null"`
	NameKana string    `gorm:"size:100"`
}

func (BankBranch) TableName() string { return "apps_master_bank_branch" }
