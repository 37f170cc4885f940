package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/haken-contracts/internal/service"
)

type assignmentRequest struct {
	ClientContractID    string  `json:"client_contract_id"`
	StaffContractID     string  `json:"staff_contract_id"`
	AssignmentStartDate *string `json:"assignment_start_date"`
	AssignmentEndDate   *string `json:"assignment_end_date"`
}

func (h *Handler) createAssignment(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	verr := &service.ValidationError{}
	input := service.AssignmentInput{
		ClientContractID:    idField(verr, "client_contract_id", req.ClientContractID),
		StaffContractID:     idField(verr, "staff_contract_id", req.StaffContractID),
		AssignmentStartDate: optionalDateField(verr, "assignment_start_date", req.AssignmentStartDate),
		AssignmentEndDate:   optionalDateField(verr, "assignment_end_date", req.AssignmentEndDate),
	}
	if err := verr.OrNil(); err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.svc.Assignments.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"assignment":    toAssignment(result.Assignment),
		"conflict_date": formatDatePtr(result.ConflictDate),
		"messages":      result.Messages,
	})
}

func (h *Handler) listAssignments(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	clientID, ok := queryID(c, "client_contract_id")
	if !ok {
		return
	}
	staffID, ok := queryID(c, "staff_contract_id")
	if !ok {
		return
	}
	switch {
	case clientID != nil:
		items, err := h.svc.Assignments.ListByClientContract(c.Request.Context(), principal, *clientID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": toAssignments(items)})
	case staffID != nil:
		items, err := h.svc.Assignments.ListByStaffContract(c.Request.Context(), principal, *staffID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": toAssignments(items)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_contract_id or staff_contract_id is required"})
	}
}

func (h *Handler) getAssignment(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignment, err := h.svc.Assignments.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssignment(assignment))
}

func (h *Handler) deleteAssignment(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Assignments.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) draftEmploymentConditions(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := h.svc.Issuance.GenerateEmploymentConditionsPDF(c.Request.Context(), principal, id, time.Now(), service.DraftWatermark)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendPDF(c, file, true)
}

func (h *Handler) issueEmploymentConditions(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.Issuance.IssueEmploymentConditions(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssignmentPrint(record))
}

func (h *Handler) listAssignmentPrints(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	prints, err := h.svc.Issuance.ListAssignmentPrints(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toAssignmentPrints(prints)})
}

func (h *Handler) downloadAssignmentPrint(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "printId")
	if !ok {
		return
	}
	record, err := h.svc.Issuance.GetAssignmentPrint(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.sendStoredPrint(c, record.PDFPath, record.FileName, false)
}
