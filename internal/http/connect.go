package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listConnectClientContracts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	contracts, err := h.svc.Confirmation.ListForClientUser(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toClientContracts(contracts)})
}

func (h *Handler) confirmClientContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Confirmation.ConfirmClientContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientContract(contract))
}

func (h *Handler) viewConnectClientPrint(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "printId")
	if !ok {
		return
	}
	record, err := h.svc.Confirmation.ClientPrint(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.sendStoredPrint(c, record.PDFPath, record.FileName, true)
}

func (h *Handler) listConnectStaffContracts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	contracts, err := h.svc.Confirmation.ListForStaff(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toStaffContracts(contracts)})
}

func (h *Handler) confirmStaffContract(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Confirmation.ConfirmStaffContract(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStaffContract(contract))
}
