package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/service"
)

type ttpRequest struct {
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

type hakenRequest struct {
	HakenOfficeID            *string     `json:"haken_office_id"`
	HakenUnitID              *string     `json:"haken_unit_id"`
	Commander                string      `json:"commander"`
	ClientComplaintOfficer   string      `json:"client_complaint_officer"`
	ClientResponsiblePerson  string      `json:"client_responsible_person"`
	CompanyComplaintOfficer  string      `json:"company_complaint_officer"`
	CompanyResponsiblePerson string      `json:"company_responsible_person"`
	LimitByAgreement         bool        `json:"limit_by_agreement"`
	LimitIndefiniteOrSenior  bool        `json:"limit_indefinite_or_senior"`
	WorkLocation             string      `json:"work_location"`
	ResponsibilityDegree     string      `json:"responsibility_degree"`
	Ttp                      *ttpRequest `json:"ttp"`
}

type clientContractRequest struct {
	ClientID               string              `json:"client_id"`
	ContractName           string              `json:"contract_name"`
	ClientContractTypeCode string              `json:"client_contract_type_code"`
	ContractPatternID      *string             `json:"contract_pattern_id"`
	JobCategoryID          *string             `json:"job_category_id"`
	StartDate              string              `json:"start_date"`
	EndDate                *string             `json:"end_date"`
	ContractAmount         decimal.NullDecimal `json:"contract_amount"`
	BillUnit               string              `json:"bill_unit"`
	BusinessContent        string              `json:"business_content"`
	PaymentSiteID          *string             `json:"payment_site_id"`
	Notes                  string              `json:"notes"`
	Haken                  *hakenRequest       `json:"haken"`
}

func (r clientContractRequest) toInput() (service.ClientContractInput, error) {
	verr := &service.ValidationError{}
	input := service.ClientContractInput{
		ClientID:               idField(verr, "client_id", r.ClientID),
		ContractName:           r.ContractName,
		ClientContractTypeCode: model.ContractTypeCode(strings.TrimSpace(r.ClientContractTypeCode)),
		ContractPatternID:      optionalIDField(verr, "contract_pattern_id", r.ContractPatternID),
		JobCategoryID:          optionalIDField(verr, "job_category_id", r.JobCategoryID),
		StartDate:              dateField(verr, "start_date", r.StartDate),
		EndDate:                optionalDateField(verr, "end_date", r.EndDate),
		ContractAmount:         r.ContractAmount,
		BillUnit:               model.PayUnit(strings.TrimSpace(r.BillUnit)),
		BusinessContent:        r.BusinessContent,
		PaymentSiteID:          optionalIDField(verr, "payment_site_id", r.PaymentSiteID),
		Notes:                  r.Notes,
	}
	if h := r.Haken; h != nil {
		input.Haken = &service.HakenInput{
			HakenOfficeID:            optionalIDField(verr, "haken_office_id", h.HakenOfficeID),
			HakenUnitID:              optionalIDField(verr, "haken_unit_id", h.HakenUnitID),
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
			input.Haken.Ttp = &service.TtpInput{
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
	}
	return input, verr.OrNil()
}

type staffContractRequest struct {
	StaffID           string              `json:"staff_id"`
	EmploymentTypeID  *string             `json:"employment_type_id"`
	ContractName      string              `json:"contract_name"`
	JobCategoryID     *string             `json:"job_category_id"`
	ContractPatternID *string             `json:"contract_pattern_id"`
	StartDate         string              `json:"start_date"`
	EndDate           *string             `json:"end_date"`
	ContractAmount    decimal.NullDecimal `json:"contract_amount"`
	PayUnit           string              `json:"pay_unit"`
	WorkLocation      string              `json:"work_location"`
	BusinessContent   string              `json:"business_content"`
	Notes             string              `json:"notes"`
}

func (r staffContractRequest) toInput() (service.StaffContractInput, error) {
	verr := &service.ValidationError{}
	input := service.StaffContractInput{
		StaffID:           idField(verr, "staff_id", r.StaffID),
		EmploymentTypeID:  optionalIDField(verr, "employment_type_id", r.EmploymentTypeID),
		ContractName:      r.ContractName,
		JobCategoryID:     optionalIDField(verr, "job_category_id", r.JobCategoryID),
		ContractPatternID: optionalIDField(verr, "contract_pattern_id", r.ContractPatternID),
		StartDate:         dateField(verr, "start_date", r.StartDate),
		EndDate:           optionalDateField(verr, "end_date", r.EndDate),
		ContractAmount:    r.ContractAmount,
		PayUnit:           model.PayUnit(strings.TrimSpace(r.PayUnit)),
		WorkLocation:      r.WorkLocation,
		BusinessContent:   r.BusinessContent,
		Notes:             r.Notes,
	}
	return input, verr.OrNil()
}

type approveRequest struct {
	IsApproved *bool `json:"is_approved" binding:"required"`
}

func contractFilter(c *gin.Context) (repository.ContractFilter, bool) {
	limit, offset := pageParams(c)
	filter := repository.ContractFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if status := model.ContractStatus(strings.TrimSpace(raw)); status.Valid() {
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := c.Query("active_on"); raw != "" {
		on, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active_on"})
			return filter, false
		}
		filter.ActiveOn = &on
	}
	var ok bool
	if filter.ClientID, ok = queryID(c, "client_id"); !ok {
		return filter, false
	}
	if filter.StaffID, ok = queryID(c, "staff_id"); !ok {
		return filter, false
	}
	return filter, true
}

func (h *Handler) listClientContracts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	filter, ok := contractFilter(c)
	if !ok {
		return
	}
	contracts, err := h.svc.Contracts.ListClientContracts(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toClientContracts(contracts)})
}

func (h *Handler) createClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req clientContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}
	contract, err := h.svc.Contracts.CreateClientContract(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toClientContract(contract))
}

func (h *Handler) getClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.GetClientContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientContract(contract))
}

func (h *Handler) updateClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req clientContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}
	contract, err := h.svc.Contracts.UpdateClientContract(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientContract(contract))
}

func (h *Handler) deleteClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Contracts.DeleteClientContract(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.SubmitClientContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientContract(contract))
}

func (h *Handler) approveClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.svc.Contracts.ApproveClientContract(c.Request.Context(), principal, id, *req.IsApproved)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": toClientContract(result.Contract), "warnings": result.Warnings})
}

func (h *Handler) issueClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	prints, err := h.svc.Issuance.IssueContractPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": toClientPrints(prints)})
}

func (h *Handler) issueSideDocument(c *gin.Context, issue func(*gin.Context, model.Principal) (*model.ClientContractPrint, error)) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	record, err := issue(c, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toClientPrint(record))
}

func (h *Handler) issueQuotation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.issueSideDocument(c, func(c *gin.Context, p model.Principal) (*model.ClientContractPrint, error) {
		return h.svc.Issuance.IssueQuotation(c.Request.Context(), p, id)
	})
}

func (h *Handler) issueTeishokubiNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.issueSideDocument(c, func(c *gin.Context, p model.Principal) (*model.ClientContractPrint, error) {
		return h.svc.Issuance.IssueTeishokubiNotification(c.Request.Context(), p, id)
	})
}

func (h *Handler) issueDispatchNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.issueSideDocument(c, func(c *gin.Context, p model.Principal) (*model.ClientContractPrint, error) {
		return h.svc.Issuance.IssueDispatchNotification(c.Request.Context(), p, id)
	})
}

func (h *Handler) draftClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	printType := model.PrintType(c.DefaultQuery("print_type", string(model.PrintTypeContract)))
	file, err := h.svc.Issuance.DraftClientPDF(c.Request.Context(), principal, id, printType)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendPDF(c, file, true)
}

func (h *Handler) listClientPrints(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	prints, err := h.svc.Issuance.ListClientPrints(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toClientPrints(prints)})
}

func (h *Handler) downloadClientPrint(c *gin.Context) {
	h.sendClientPrint(c, false)
}

func (h *Handler) viewClientPrint(c *gin.Context) {
	h.sendClientPrint(c, true)
}

func (h *Handler) sendClientPrint(c *gin.Context, inline bool) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "printId")
	if !ok {
		return
	}
	record, err := h.svc.Issuance.GetClientPrint(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.sendStoredPrint(c, record.PDFPath, record.FileName, inline)
}

func (h *Handler) sendStoredPrint(c *gin.Context, path, fileName string, inline bool) {
	file, err := h.svc.Issuance.OpenPrint(c.Request.Context(), path, fileName)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendPDF(c, file, inline)
}

func (h *Handler) listStaffContracts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	filter, ok := contractFilter(c)
	if !ok {
		return
	}
	contracts, err := h.svc.Contracts.ListStaffContracts(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toStaffContracts(contracts)})
}

func (h *Handler) createStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req staffContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}
	contract, err := h.svc.Contracts.CreateStaffContract(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStaffContract(contract))
}

func (h *Handler) getStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.GetStaffContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStaffContract(contract))
}

func (h *Handler) updateStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req staffContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}
	contract, err := h.svc.Contracts.UpdateStaffContract(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStaffContract(contract))
}

func (h *Handler) deleteStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Contracts.DeleteStaffContract(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.SubmitStaffContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStaffContract(contract))
}

func (h *Handler) approveStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.svc.Contracts.ApproveStaffContract(c.Request.Context(), principal, id, *req.IsApproved)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": toStaffContract(result.Contract), "warnings": result.Warnings})
}

func (h *Handler) issueStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.Issuance.IssueStaffContractPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStaffPrint(record))
}

func (h *Handler) draftStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := h.svc.Issuance.DraftStaffPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendPDF(c, file, true)
}

func (h *Handler) listStaffPrints(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	prints, err := h.svc.Issuance.ListStaffPrints(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toStaffPrints(prints)})
}

func (h *Handler) downloadStaffPrint(c *gin.Context) {
	h.sendStaffPrint(c, false)
}

func (h *Handler) viewStaffPrint(c *gin.Context) {
	h.sendStaffPrint(c, true)
}

func (h *Handler) sendStaffPrint(c *gin.Context, inline bool) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "printId")
	if !ok {
		return
	}
	record, err := h.svc.Issuance.GetStaffPrint(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.sendStoredPrint(c, record.PDFPath, record.FileName, inline)
}
