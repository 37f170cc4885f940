package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientContract is a contract between the staffing company and a client.
type ClientContract struct {
	Base
	ClientID               uuid.UUID           `gorm:"type:uuid;not null;index"`
	Client                 *Client             `gorm:"foreignKey:ClientID"`
	ContractName           string              `gorm:"size:255;not null"`
	ClientContractTypeCode ContractTypeCode    `gorm:"size:2;not null"`
	CorporateNumber        string              `gorm:"size:13"`
	ContractPatternID      *uuid.UUID          `gorm:"type:uuid"`
	ContractPattern        *ContractPattern    `gorm:"foreignKey:ContractPatternID"`
	JobCategoryID          *uuid.UUID          `gorm:"type:uuid"`
	JobCategory            *JobCategory        `gorm:"foreignKey:JobCategoryID"`
	ContractNumber         *string             `gorm:"size:50"`
	ContractStatus         ContractStatus      `gorm:"size:2;not null;index"`
	StartDate              time.Time           `gorm:"type:date;not null;index"`
	EndDate                *time.Time          `gorm:"type:date;index"`
	ContractAmount         decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	BillUnit               PayUnit             `gorm:"size:2"`
	BusinessContent        string              `gorm:"type:text"`
	PaymentSiteID          *uuid.UUID          `gorm:"type:uuid"`
	PaymentSite            *PaymentSite        `gorm:"foreignKey:PaymentSiteID"`
	Notes                  string              `gorm:"type:text"`

	ApprovedAt                     *time.Time
	ApprovedBy                     *uuid.UUID `gorm:"type:uuid"`
	IssuedAt                       *time.Time
	IssuedBy                       *uuid.UUID `gorm:"type:uuid"`
	QuotationIssuedAt              *time.Time
	QuotationIssuedBy              *uuid.UUID `gorm:"type:uuid"`
	TeishokubiNotificationIssuedAt *time.Time
	TeishokubiNotificationIssuedBy *uuid.UUID `gorm:"type:uuid"`
	ConfirmedAt                    *time.Time
	ConfirmedBy                    *uuid.UUID `gorm:"type:uuid"`

	Haken *ClientContractHaken `gorm:"foreignKey:ClientContractID"`
}

func (ClientContract) TableName() string { return "apps_contract_client" }

func (c ClientContract) AuditModel() string { return "ClientContract" }

func (c ClientContract) String() string {
	return fmt.Sprintf("%s (%s)", c.ContractName, c.ContractStatus.Label())
}

func (c *ClientContract) IsDispatch() bool {
	return c.ClientContractTypeCode == ContractTypeDispatch
}

// IsTtp reports a dispatch contract with an introduction-intent extension.
func (c *ClientContract) IsTtp() bool {
	return c.IsDispatch() && c.Haken != nil && c.Haken.Ttp != nil
}

func (c *ClientContract) IsApprovedOrLater() bool {
	return c.ContractStatus.AtLeast(StatusApproved)
}

func (c *ClientContract) IsIssuedOrLater() bool {
	return c.ContractStatus.AtLeast(StatusIssued)
}

func (c *ClientContract) Period() Period {
	return Period{Start: c.StartDate, End: c.EndDate}
}

func (c *ClientContract) Number() string {
	if c.ContractNumber == nil {
		return ""
	}
	return *c.ContractNumber
}

// ClientCode derives the allocator prefix from the client's corporate number,
// falling back to the number captured on the contract.
func (c *ClientContract) ClientCode() string {
	if c.Client != nil {
		if code := c.Client.ClientCode(); code != "" {
			return code
		}
	}
	return ClientCodeFromCorporateNumber(c.CorporateNumber)
}

// ClientContractHaken carries the dispatch-only fields of a client contract.
type ClientContractHaken struct {
	Base
	ClientContractID         uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex"`
	HakenOfficeID            *uuid.UUID         `gorm:"type:uuid"`
	HakenOffice              *ClientDepartment  `gorm:"foreignKey:HakenOfficeID"`
	HakenUnitID              *uuid.UUID         `gorm:"type:uuid"`
	HakenUnit                *ClientDepartment  `gorm:"foreignKey:HakenUnitID"`
	Commander                string             `gorm:"size:100"`
	ClientComplaintOfficer   string             `gorm:"size:100"`
	ClientResponsiblePerson  string             `gorm:"size:100"`
	CompanyComplaintOfficer  string             `gorm:"size:100"`
	CompanyResponsiblePerson string             `gorm:"size:100"`
	LimitByAgreement         bool               `gorm:"not null;default:false"`
	LimitIndefiniteOrSenior  bool               `gorm:"not null;default:false"`
	WorkLocation             string             `gorm:"type:text"`
	ResponsibilityDegree     string             `gorm:"size:255"`
	Ttp                      *ClientContractTtp `gorm:"foreignKey:HakenID"`
}

func (ClientContractHaken) TableName() string { return "apps_contract_client_haken" }

// OrganizationName is the organization unit the three-year rule attaches to.
func (h *ClientContractHaken) OrganizationName() string {
	if h == nil || h.HakenUnit == nil {
		return ""
	}
	return h.HakenUnit.Name
}

// ClientContractTtp holds the offered direct-employment terms of an
// introduction-intent dispatch.
type ClientContractTtp struct {
	Base
	HakenID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ContractPeriod    string    `gorm:"type:text"`
	ProbationPeriod   string    `gorm:"type:text"`
	BusinessContent   string    `gorm:"type:text"`
	WorkLocation      string    `gorm:"type:text"`
	WorkingHours      string    `gorm:"type:text"`
	BreakTime         string    `gorm:"type:text"`
	Overtime          string    `gorm:"type:text"`
	Holidays          string    `gorm:"type:text"`
	Vacations         string    `gorm:"type:text"`
	Wages             string    `gorm:"type:text"`
	Insurances        string    `gorm:"type:text"`
	EmployerName      string    `gorm:"size:255"`
	Other             string    `gorm:"type:text"`
}

func (ClientContractTtp) TableName() string { return "apps_contract_client_haken_ttp" }
