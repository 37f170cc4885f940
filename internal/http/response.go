package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type statusResponse struct {
	Code model.ContractStatus `json:"code"`
	Name string               `json:"name"`
}

func toStatus(s model.ContractStatus) statusResponse {
	return statusResponse{Code: s, Name: s.Label()}
}

type ttpResponse struct {
	ContractPeriod  string `json:"contract_period"`
	ProbationPeriod string `json:"probation_period"`
	BusinessContent string `json:"business_content"`
	WorkLocation    string `json:"work_location"`
	WorkingHours    string `json:"working_hours"`
	BreakTime       string `json:"break_time"`
	Overtime        string `json:"overtime"`
	Holidays        string `json:"holidays"`
	Vacations       string `json:"vacations"`
	Wages           string `json:"wages"`
	Insurances      string `json:"insurances"`
	EmployerName    string `json:"employer_name"`
	Other           string `json:"other"`
}

type hakenResponse struct {
	HakenOfficeID            *uuid.UUID   `json:"haken_office_id"`
	HakenUnitID              *uuid.UUID   `json:"haken_unit_id"`
	OrganizationName         string       `json:"organization_name"`
	Commander                string       `json:"commander"`
	ClientComplaintOfficer   string       `json:"client_complaint_officer"`
	ClientResponsiblePerson  string       `json:"client_responsible_person"`
	CompanyComplaintOfficer  string       `json:"company_complaint_officer"`
	CompanyResponsiblePerson string       `json:"company_responsible_person"`
	LimitByAgreement         bool         `json:"limit_by_agreement"`
	LimitIndefiniteOrSenior  bool         `json:"limit_indefinite_or_senior"`
	WorkLocation             string       `json:"work_location"`
	ResponsibilityDegree     string       `json:"responsibility_degree"`
	Ttp                      *ttpResponse `json:"ttp,omitempty"`
}

func toHaken(h *model.ClientContractHaken) *hakenResponse {
	if h == nil {
		return nil
	}
	resp := &hakenResponse{
		HakenOfficeID:            h.HakenOfficeID,
		HakenUnitID:              h.HakenUnitID,
		OrganizationName:         h.OrganizationName(),
		Commander:                h.Commander,
		ClientComplaintOfficer:   h.ClientComplaintOfficer,
		ClientResponsiblePerson:  h.ClientResponsiblePerson,
		CompanyComplaintOfficer:  h.CompanyComplaintOfficer,
		CompanyResponsiblePerson: h.CompanyResponsiblePerson,
		LimitByAgreement:         h.LimitByAgreement,
		LimitIndefiniteOrSenior:  h.LimitIndefiniteOrSenior,
		WorkLocation:             h.WorkLocation,
		ResponsibilityDegree:     h.ResponsibilityDegree,
	}
	if t := h.Ttp; t != nil {
		resp.Ttp = &ttpResponse{
			ContractPeriod:  t.ContractPeriod,
			ProbationPeriod: t.ProbationPeriod,
			BusinessContent: t.BusinessContent,
			WorkLocation:    t.WorkLocation,
			WorkingHours:    t.WorkingHours,
			BreakTime:       t.BreakTime,
			Overtime:        t.Overtime,
			Holidays:        t.Holidays,
			Vacations:       t.Vacations,
			Wages:           t.Wages,
			Insurances:      t.Insurances,
			EmployerName:    t.EmployerName,
			Other:           t.Other,
		}
	}
	return resp
}

type clientContractResponse struct {
	ID                             uuid.UUID              `json:"id"`
	ClientID                       uuid.UUID              `json:"client_id"`
	ClientName                     string                 `json:"client_name"`
	ContractName                   string                 `json:"contract_name"`
	ContractTypeCode               model.ContractTypeCode `json:"client_contract_type_code"`
	ContractTypeName               string                 `json:"client_contract_type_name"`
	ContractPatternID              *uuid.UUID             `json:"contract_pattern_id"`
	JobCategoryID                  *uuid.UUID             `json:"job_category_id"`
	ContractNumber                 *string                `json:"contract_number"`
	Status                         statusResponse         `json:"contract_status"`
	StartDate                      string                 `json:"start_date"`
	EndDate                        *string                `json:"end_date"`
	ContractAmount                 decimal.NullDecimal    `json:"contract_amount"`
	BillUnit                       model.PayUnit          `json:"bill_unit"`
	BusinessContent                string                 `json:"business_content"`
	PaymentSiteID                  *uuid.UUID             `json:"payment_site_id"`
	Notes                          string                 `json:"notes"`
	ApprovedAt                     *time.Time             `json:"approved_at"`
	IssuedAt                       *time.Time             `json:"issued_at"`
	QuotationIssuedAt              *time.Time             `json:"quotation_issued_at"`
	TeishokubiNotificationIssuedAt *time.Time             `json:"teishokubi_notification_issued_at"`
	ConfirmedAt                    *time.Time             `json:"confirmed_at"`
	Version                        int                    `json:"version"`
	Haken                          *hakenResponse         `json:"haken,omitempty"`
}

func toClientContract(c *model.ClientContract) clientContractResponse {
	clientName := ""
	if c.Client != nil {
		clientName = c.Client.Name
	}
	return clientContractResponse{
		ID:                             c.ID,
		ClientID:                       c.ClientID,
		ClientName:                     clientName,
		ContractName:                   c.ContractName,
		ContractTypeCode:               c.ClientContractTypeCode,
		ContractTypeName:               c.ClientContractTypeCode.Label(),
		ContractPatternID:              c.ContractPatternID,
		JobCategoryID:                  c.JobCategoryID,
		ContractNumber:                 c.ContractNumber,
		Status:                         toStatus(c.ContractStatus),
		StartDate:                      formatDate(c.StartDate),
		EndDate:                        formatDatePtr(c.EndDate),
		ContractAmount:                 c.ContractAmount,
		BillUnit:                       c.BillUnit,
		BusinessContent:                c.BusinessContent,
		PaymentSiteID:                  c.PaymentSiteID,
		Notes:                          c.Notes,
		ApprovedAt:                     c.ApprovedAt,
		IssuedAt:                       c.IssuedAt,
		QuotationIssuedAt:              c.QuotationIssuedAt,
		TeishokubiNotificationIssuedAt: c.TeishokubiNotificationIssuedAt,
		ConfirmedAt:                    c.ConfirmedAt,
		Version:                        c.Version,
		Haken:                          toHaken(c.Haken),
	}
}

func toClientContracts(items []model.ClientContract) []clientContractResponse {
	resp := make([]clientContractResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toClientContract(&items[i]))
	}
	return resp
}

type staffContractResponse struct {
	ID                uuid.UUID           `json:"id"`
	StaffID           uuid.UUID           `json:"staff_id"`
	StaffName         string              `json:"staff_name"`
	EmployeeNo        string              `json:"employee_no"`
	EmploymentTypeID  *uuid.UUID          `json:"employment_type_id"`
	IsFixedTerm       bool                `json:"is_fixed_term"`
	ContractName      string              `json:"contract_name"`
	JobCategoryID     *uuid.UUID          `json:"job_category_id"`
	ContractPatternID *uuid.UUID          `json:"contract_pattern_id"`
	ContractNumber    *string             `json:"contract_number"`
	Status            statusResponse      `json:"contract_status"`
	StartDate         string              `json:"start_date"`
	EndDate           *string             `json:"end_date"`
	ContractAmount    decimal.NullDecimal `json:"contract_amount"`
	PayUnit           model.PayUnit       `json:"pay_unit"`
	WorkLocation      string              `json:"work_location"`
	BusinessContent   string              `json:"business_content"`
	Notes             string              `json:"notes"`
	ApprovedAt        *time.Time          `json:"approved_at"`
	IssuedAt          *time.Time          `json:"issued_at"`
	ConfirmedAt       *time.Time          `json:"confirmed_at"`
	Version           int                 `json:"version"`
}

func toStaffContract(c *model.StaffContract) staffContractResponse {
	name := ""
	if c.Staff != nil {
		name = c.Staff.Name
	}
	return staffContractResponse{
		ID:                c.ID,
		StaffID:           c.StaffID,
		StaffName:         name,
		EmployeeNo:        c.EmployeeNo(),
		EmploymentTypeID:  c.EmploymentTypeID,
		IsFixedTerm:       c.IsFixedTerm,
		ContractName:      c.ContractName,
		JobCategoryID:     c.JobCategoryID,
		ContractPatternID: c.ContractPatternID,
		ContractNumber:    c.ContractNumber,
		Status:            toStatus(c.ContractStatus),
		StartDate:         formatDate(c.StartDate),
		EndDate:           formatDatePtr(c.EndDate),
		ContractAmount:    c.ContractAmount,
		PayUnit:           c.PayUnit,
		WorkLocation:      c.WorkLocation,
		BusinessContent:   c.BusinessContent,
		Notes:             c.Notes,
		ApprovedAt:        c.ApprovedAt,
		IssuedAt:          c.IssuedAt,
		ConfirmedAt:       c.ConfirmedAt,
		Version:           c.Version,
	}
}

func toStaffContracts(items []model.StaffContract) []staffContractResponse {
	resp := make([]staffContractResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toStaffContract(&items[i]))
	}
	return resp
}

type printResponse struct {
	ID             uuid.UUID       `json:"id"`
	ContractID     uuid.UUID       `json:"contract_id"`
	PrintType      model.PrintType `json:"print_type"`
	DocumentTitle  string          `json:"document_title"`
	FileName       string          `json:"file_name"`
	ContractNumber string          `json:"contract_number,omitempty"`
	ConflictDate   *string         `json:"conflict_date,omitempty"`
	PrintedAt      time.Time       `json:"printed_at"`
	PrintedBy      *uuid.UUID      `json:"printed_by"`
}

func toClientPrint(p *model.ClientContractPrint) printResponse {
	return printResponse{
		ID:             p.ID,
		ContractID:     p.ClientContractID,
		PrintType:      p.PrintType,
		DocumentTitle:  p.DocumentTitle,
		FileName:       p.FileName,
		ContractNumber: p.ContractNumber,
		PrintedAt:      p.PrintedAt,
		PrintedBy:      p.PrintedBy,
	}
}

func toClientPrints(items []model.ClientContractPrint) []printResponse {
	resp := make([]printResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toClientPrint(&items[i]))
	}
	return resp
}

func toStaffPrint(p *model.StaffContractPrint) printResponse {
	return printResponse{
		ID:             p.ID,
		ContractID:     p.StaffContractID,
		PrintType:      p.PrintType,
		DocumentTitle:  p.DocumentTitle,
		FileName:       p.FileName,
		ContractNumber: p.ContractNumber,
		PrintedAt:      p.PrintedAt,
		PrintedBy:      p.PrintedBy,
	}
}

func toStaffPrints(items []model.StaffContractPrint) []printResponse {
	resp := make([]printResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toStaffPrint(&items[i]))
	}
	return resp
}

func toAssignmentPrint(p *model.ContractAssignmentPrint) printResponse {
	return printResponse{
		ID:            p.ID,
		ContractID:    p.AssignmentID,
		PrintType:     p.PrintType,
		DocumentTitle: p.DocumentTitle,
		FileName:      p.FileName,
		ConflictDate:  formatDatePtr(p.ConflictDate),
		PrintedAt:     p.PrintedAt,
		PrintedBy:     p.PrintedBy,
	}
}

func toAssignmentPrints(items []model.ContractAssignmentPrint) []printResponse {
	resp := make([]printResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toAssignmentPrint(&items[i]))
	}
	return resp
}

type assignmentResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ClientContractID    uuid.UUID  `json:"client_contract_id"`
	StaffContractID     uuid.UUID  `json:"staff_contract_id"`
	AssignedAt          time.Time  `json:"assigned_at"`
	AssignmentStartDate *string    `json:"assignment_start_date"`
	AssignmentEndDate   *string    `json:"assignment_end_date"`
	EffectiveStartDate  *string    `json:"effective_start_date,omitempty"`
	EffectiveEndDate    *string    `json:"effective_end_date,omitempty"`
	CreatedBy           *uuid.UUID `json:"created_by"`
}

func toAssignment(a *model.ContractAssignment) assignmentResponse {
	resp := assignmentResponse{
		ID:                  a.ID,
		ClientContractID:    a.ClientContractID,
		StaffContractID:     a.StaffContractID,
		AssignedAt:          a.AssignedAt,
		AssignmentStartDate: formatDatePtr(a.AssignmentStartDate),
		AssignmentEndDate:   formatDatePtr(a.AssignmentEndDate),
		CreatedBy:           a.CreatedBy,
	}
	if period, ok := a.EffectivePeriod(); ok {
		start := formatDate(period.Start)
		resp.EffectiveStartDate = &start
		resp.EffectiveEndDate = formatDatePtr(period.End)
	}
	return resp
}

func toAssignments(items []model.ContractAssignment) []assignmentResponse {
	resp := make([]assignmentResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toAssignment(&items[i]))
	}
	return resp
}

type teishokubiDetailResponse struct {
	ID                  uuid.UUID  `json:"id"`
	AssignmentID        *uuid.UUID `json:"assignment_id"`
	ClientContractID    *uuid.UUID `json:"client_contract_id"`
	StaffContractID     *uuid.UUID `json:"staff_contract_id"`
	AssignmentStartDate string     `json:"assignment_start_date"`
	AssignmentEndDate   *string    `json:"assignment_end_date"`
	IsCalculated        bool       `json:"is_calculated"`
	IsManual            bool       `json:"is_manual"`
}

type teishokubiResponse struct {
	ID                    uuid.UUID                  `json:"id"`
	StaffEmail            string                     `json:"staff_email"`
	ClientCorporateNumber string                     `json:"client_corporate_number"`
	OrganizationName      string                     `json:"organization_name"`
	DispatchStartDate     string                     `json:"dispatch_start_date"`
	ConflictDate          string                     `json:"conflict_date"`
	Version               int                        `json:"version"`
	Details               []teishokubiDetailResponse `json:"details"`
}

func toTeishokubi(t *model.StaffContractTeishokubi) teishokubiResponse {
	details := make([]teishokubiDetailResponse, 0, len(t.Details))
	for _, d := range t.Details {
		details = append(details, teishokubiDetailResponse{
			ID:                  d.ID,
			AssignmentID:        d.AssignmentID,
			ClientContractID:    d.ClientContractID,
			StaffContractID:     d.StaffContractID,
			AssignmentStartDate: formatDate(d.AssignmentStartDate),
			AssignmentEndDate:   formatDatePtr(d.AssignmentEndDate),
			IsCalculated:        d.IsCalculated,
			IsManual:            d.IsManual,
		})
	}
	return teishokubiResponse{
		ID:                    t.ID,
		StaffEmail:            t.StaffEmail,
		ClientCorporateNumber: t.ClientCorporateNumber,
		OrganizationName:      t.OrganizationName,
		DispatchStartDate:     formatDate(t.DispatchStartDate),
		ConflictDate:          formatDate(t.ConflictDate),
		Version:               t.Version,
		Details:               details,
	}
}

type appLogResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id"`
	Action     string     `json:"action"`
	ModelName  string     `json:"model_name"`
	ObjectID   string     `json:"object_id"`
	ObjectRepr string     `json:"object_repr"`
	Version    int        `json:"version"`
	Timestamp  time.Time  `json:"timestamp"`
}

func toAppLogs(items []model.AppLog) []appLogResponse {
	resp := make([]appLogResponse, 0, len(items))
	for _, l := range items {
		resp = append(resp, appLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			ModelName:  l.ModelName,
			ObjectID:   l.ObjectID,
			ObjectRepr: l.ObjectRepr,
			Version:    l.Version,
			Timestamp:  l.Timestamp,
		})
	}
	return resp
}
