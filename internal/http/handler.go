package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/http/middleware"
	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/service"
)

type Services struct {
	Auth         *service.AuthService
	Contracts    *service.ContractService
	Assignments  *service.AssignmentService
	Issuance     *service.IssuanceService
	Teishokubi   *service.TeishokubiCalculator
	Confirmation *service.ConfirmationService
	Ledger       *service.LedgerService
	Auditor      *service.Auditor
}

type Handler struct {
	svc Services
	log zerolog.Logger
}

func NewHandler(svc Services, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.POST("/auth/login", h.login)

	authenticated := router.Group("/")
	authenticated.Use(authMiddleware)
	authenticated.POST("/auth/logout", h.logout)

	company := authenticated.Group("/")
	company.Use(middleware.RequireKind(model.PrincipalCompany))

	company.GET("/client-contracts", h.listClientContracts)
	company.POST("/client-contracts", h.createClientContract)
	company.GET("/client-contracts/:id", h.getClientContract)
	company.PUT("/client-contracts/:id", h.updateClientContract)
	company.DELETE("/client-contracts/:id", h.deleteClientContract)
	company.POST("/client-contracts/:id/submit", h.submitClientContract)
	company.POST("/client-contracts/:id/approve", h.approveClientContract)
	company.POST("/client-contracts/:id/issue", h.issueClientContract)
	company.POST("/client-contracts/:id/quotation", h.issueQuotation)
	company.POST("/client-contracts/:id/teishokubi-notification", h.issueTeishokubiNotification)
	company.POST("/client-contracts/:id/dispatch-notification", h.issueDispatchNotification)
	company.GET("/client-contracts/:id/draft.pdf", h.draftClientContract)
	company.GET("/client-contracts/:id/prints", h.listClientPrints)
	company.GET("/client-prints/:printId/download", h.downloadClientPrint)
	company.GET("/client-prints/:printId/view", h.viewClientPrint)

	company.GET("/staff-contracts", h.listStaffContracts)
	company.POST("/staff-contracts", h.createStaffContract)
	company.GET("/staff-contracts/:id", h.getStaffContract)
	company.PUT("/staff-contracts/:id", h.updateStaffContract)
	company.DELETE("/staff-contracts/:id", h.deleteStaffContract)
	company.POST("/staff-contracts/:id/submit", h.submitStaffContract)
	company.POST("/staff-contracts/:id/approve", h.approveStaffContract)
	company.POST("/staff-contracts/:id/issue", h.issueStaffContract)
	company.GET("/staff-contracts/:id/draft.pdf", h.draftStaffContract)
	company.GET("/staff-contracts/:id/prints", h.listStaffPrints)
	company.GET("/staff-prints/:printId/download", h.downloadStaffPrint)
	company.GET("/staff-prints/:printId/view", h.viewStaffPrint)

	company.GET("/assignments", h.listAssignments)
	company.POST("/assignments", h.createAssignment)
	company.GET("/assignments/:id", h.getAssignment)
	company.DELETE("/assignments/:id", h.deleteAssignment)
	company.GET("/assignments/:id/employment-conditions.pdf", h.draftEmploymentConditions)
	company.POST("/assignments/:id/employment-conditions", h.issueEmploymentConditions)
	company.GET("/assignments/:id/prints", h.listAssignmentPrints)
	company.GET("/assignment-prints/:printId/download", h.downloadAssignmentPrint)

	company.GET("/teishokubi", h.listTeishokubi)
	company.POST("/teishokubi/manual", h.addManualTeishokubi)
	company.GET("/exports/assignments.xlsx", h.exportAssignments)
	company.GET("/exports/teishokubi.xlsx", h.exportTeishokubi)
	company.GET("/app-logs", h.listAppLogs)

	client := authenticated.Group("/connect")
	client.Use(middleware.RequireKind(model.PrincipalClient))
	client.GET("/client-contracts", h.listConnectClientContracts)
	client.POST("/client-contracts/:id/confirm", h.confirmClientContract)
	client.GET("/client-prints/:printId/view", h.viewConnectClientPrint)

	staff := authenticated.Group("/connect")
	staff.Use(middleware.RequireKind(model.PrincipalStaff))
	staff.GET("/staff-contracts", h.listConnectStaffContracts)
	staff.POST("/staff-contracts/:id/confirm", h.confirmStaffContract)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password, middleware.ClientIP(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) logout(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	h.svc.Auth.Logout(c.Request.Context(), principal, middleware.ClientIP(c))
	c.Status(http.StatusNoContent)
}

func (h *Handler) listTeishokubi(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	records, err := h.svc.Teishokubi.List(c.Request.Context(), principal, repository.TeishokubiFilter{
		StaffEmail:            strings.ToLower(strings.TrimSpace(c.Query("staff_email"))),
		ClientCorporateNumber: strings.TrimSpace(c.Query("client_corporate_number")),
		Limit:                 limit,
		Offset:                offset,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	resp := make([]teishokubiResponse, 0, len(records))
	for i := range records {
		resp = append(resp, toTeishokubi(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

type manualTeishokubiRequest struct {
	StaffEmail            string  `json:"staff_email"`
	ClientCorporateNumber string  `json:"client_corporate_number"`
	OrganizationName      string  `json:"organization_name"`
	StartDate             string  `json:"start_date"`
	EndDate               *string `json:"end_date"`
}

func (h *Handler) addManualTeishokubi(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req manualTeishokubiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	verr := &service.ValidationError{}
	start := dateField(verr, "start_date", req.StartDate)
	end := optionalDateField(verr, "end_date", req.EndDate)
	if err := verr.OrNil(); err != nil {
		h.handleError(c, err)
		return
	}

	record, err := h.svc.Teishokubi.AddManualDetail(c.Request.Context(), principal, service.ManualDetailInput{
		Key: model.TeishokubiKey{
			StaffEmail:            strings.ToLower(strings.TrimSpace(req.StaffEmail)),
			ClientCorporateNumber: strings.TrimSpace(req.ClientCorporateNumber),
			OrganizationName:      strings.TrimSpace(req.OrganizationName),
		},
		Start: start,
		End:   end,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTeishokubi(record))
}

func (h *Handler) exportAssignments(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}
	file, err := h.svc.Ledger.ExportAssignments(c.Request.Context(), principal, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendXLSX(c, file.FileName, file.Content)
}

func (h *Handler) exportTeishokubi(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	file, err := h.svc.Ledger.ExportTeishokubi(c.Request.Context(), principal, repository.TeishokubiFilter{
		StaffEmail:            strings.ToLower(strings.TrimSpace(c.Query("staff_email"))),
		ClientCorporateNumber: strings.TrimSpace(c.Query("client_corporate_number")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendXLSX(c, file.FileName, file.Content)
}

func (h *Handler) listAppLogs(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	filter := repository.AppLogFilter{
		ModelName: strings.TrimSpace(c.Query("model_name")),
		ObjectID:  strings.TrimSpace(c.Query("object_id")),
		Action:    strings.TrimSpace(c.Query("action")),
		Limit:     limit,
		Offset:    offset,
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &userID
	}
	page, err := h.svc.Auditor.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toAppLogs(page.Items), "total": page.Total})
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return principal, ok
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var missing *service.MissingCodeError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidInput.Error(), "fields": verr.Errors})
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": service.ErrMissingCode.Error(), "hint": missing.Hint})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		dateLayout,
		"2006/01/02",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return model.DateOnly(parsed), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

const invalidDateMessage = "日付の形式が正しくありません。"

// dateField leaves an empty value as the zero time so the service reports it
// as missing.
func dateField(verr *service.ValidationError, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	parsed, err := parseDate(raw)
	if err != nil {
		verr.Add(field, invalidDateMessage)
	}
	return parsed
}

func optionalDateField(verr *service.ValidationError, field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		verr.Add(field, invalidDateMessage)
		return nil
	}
	return &parsed
}

func optionalIDField(verr *service.ValidationError, field string, raw *string) *uuid.UUID {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		verr.Add(field, "IDの形式が正しくありません。")
		return nil
	}
	return &id
}

func idField(verr *service.ValidationError, field, raw string) uuid.UUID {
	id := optionalIDField(verr, field, &raw)
	if id == nil {
		if strings.TrimSpace(raw) == "" {
			verr.Add(field, "必須項目です。")
		}
		return uuid.Nil
	}
	return *id
}

func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &id, true
}

func sendPDF(c *gin.Context, file *service.PDFFile, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+"; filename=\""+file.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", file.Content)
}

func sendXLSX(c *gin.Context, fileName string, content []byte) {
	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, contentType, content)
}
