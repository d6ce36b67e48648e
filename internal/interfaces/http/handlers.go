package http

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/application/service"
	"github.com/asanchezr/viaticos/internal/domain/draft"
	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	wizardService   service.WizardService
	approvalService service.ApprovalService
	exportService   service.ExportService
	referenceRepo   port.ReferenceRepository
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	wizardService service.WizardService,
	approvalService service.ApprovalService,
	exportService service.ExportService,
	referenceRepo port.ReferenceRepository,
	logger Logger,
) *Handlers {
	return &Handlers{
		wizardService:   wizardService,
		approvalService: approvalService,
		exportService:   exportService,
		referenceRepo:   referenceRepo,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StartSessionRequest represents the body for opening a wizard session
type StartSessionRequest struct {
	RequestID int64 `json:"request_id"`
}

// StartSessionResponse carries the opened session plus how its draft began
type StartSessionResponse struct {
	Session *service.SessionState `json:"session"`
	Outcome string                `json:"outcome"`
}

// SelectCostCenterRequest represents the body for the cost-center stage
type SelectCostCenterRequest struct {
	Code string `json:"code" binding:"required"`
}

// SelectWorkerRequest represents the body for the worker stage
type SelectWorkerRequest struct {
	WorkerID int64 `json:"worker_id" binding:"required"`
}

// ItemRequest represents a line-item candidate in API requests
type ItemRequest struct {
	Date        string `json:"date" binding:"required"`
	TripAmount  string `json:"trip_amount" binding:"required"`
	DayAmount   int    `json:"day_amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Destination string `json:"destination"`
}

// SignatureRequest represents the body for capturing a signature
type SignatureRequest struct {
	Data        string `json:"data" binding:"required"` // base64-encoded image bytes
	ContentType string `json:"content_type"`
}

// DecisionRequest represents the body for approve/reject actions
type DecisionRequest struct {
	ManagerID int64 `json:"manager_id" binding:"required"`
	Version   int64 `json:"version" binding:"required"`
}

// ListRequestsRequest represents query parameters for listing pending requests
type ListRequestsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// RequestResponse represents an expense request in API responses
type RequestResponse struct {
	ID             int64                   `json:"id"`
	TicketNumber   string                  `json:"ticket_number"`
	CostCenterCode string                  `json:"cost_center_code"`
	WorkerID       int64                   `json:"worker_id"`
	SpentValue     decimal.Decimal         `json:"spent_value"`
	EmissionDate   string                  `json:"emission_date"`
	State          string                  `json:"state"`
	Version        int64                   `json:"version"`
	Details        []*entity.ExpenseDetail `json:"details,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListCostCenters handles GET /api/v1/cost-centers
func (h *Handlers) ListCostCenters(c *gin.Context) {
	centers, err := h.referenceRepo.ListCostCenters(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list cost centers", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve cost centers",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    centers,
	})
}

// ListWorkers handles GET /api/v1/workers
func (h *Handlers) ListWorkers(c *gin.Context) {
	workers, err := h.referenceRepo.ListWorkers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list workers", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve workers",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    workers,
	})
}

// StartSession handles POST /api/v1/sessions
func (h *Handlers) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid request body",
			})
			return
		}
	}

	state, outcome, err := h.wizardService.StartSession(c.Request.Context(), req.RequestID)
	if err != nil {
		h.logger.Error("Failed to start session", "error", err, "request_id", req.RequestID)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to start session",
		})
		return
	}

	if outcome == service.LoadOutcomeNotFound {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "expense request not found",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: StartSessionResponse{
			Session: state,
			Outcome: string(outcome),
		},
	})
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	state, err := h.wizardService.GetSession(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    state,
	})
}

// CloseSession handles DELETE /api/v1/sessions/:id
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.wizardService.CloseSession(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// NextStage handles POST /api/v1/sessions/:id/next
func (h *Handlers) NextStage(c *gin.Context) {
	state, err := h.wizardService.Next(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    state,
	})
}

// PrevStage handles POST /api/v1/sessions/:id/prev
func (h *Handlers) PrevStage(c *gin.Context) {
	state, err := h.wizardService.Prev(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    state,
	})
}

// SelectCostCenter handles PUT /api/v1/sessions/:id/cost-center
func (h *Handlers) SelectCostCenter(c *gin.Context) {
	var req SelectCostCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	if err := h.wizardService.SelectCostCenter(c.Request.Context(), c.Param("id"), req.Code); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// SelectWorker handles PUT /api/v1/sessions/:id/worker
func (h *Handlers) SelectWorker(c *gin.Context) {
	var req SelectWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	if err := h.wizardService.SelectWorker(c.Request.Context(), c.Param("id"), req.WorkerID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// AddItem handles POST /api/v1/sessions/:id/items
func (h *Handlers) AddItem(c *gin.Context) {
	candidate, ok := h.bindItem(c)
	if !ok {
		return
	}

	item, err := h.wizardService.AddItem(c.Request.Context(), c.Param("id"), candidate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    item,
	})
}

// UpdateItem handles PUT /api/v1/sessions/:id/items/:itemID
func (h *Handlers) UpdateItem(c *gin.Context) {
	candidate, ok := h.bindItem(c)
	if !ok {
		return
	}

	if err := h.wizardService.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemID"), candidate); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RemoveItem handles DELETE /api/v1/sessions/:id/items/:itemID
func (h *Handlers) RemoveItem(c *gin.Context) {
	if err := h.wizardService.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemID")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// BeginItemEdit handles POST /api/v1/sessions/:id/items/edit
func (h *Handlers) BeginItemEdit(c *gin.Context) {
	if err := h.wizardService.BeginItemEdit(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// CancelItemEdit handles DELETE /api/v1/sessions/:id/items/edit
func (h *Handlers) CancelItemEdit(c *gin.Context) {
	if err := h.wizardService.CancelItemEdit(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// CaptureSignature handles PUT /api/v1/sessions/:id/signature
func (h *Handlers) CaptureSignature(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "signature data is not valid base64",
		})
		return
	}

	if err := h.wizardService.CaptureSignature(c.Param("id"), data, req.ContentType); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RemoveSignature handles DELETE /api/v1/sessions/:id/signature
func (h *Handlers) RemoveSignature(c *gin.Context) {
	if err := h.wizardService.RemoveSignature(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// Submit handles POST /api/v1/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	req, err := h.wizardService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    toRequestResponse(req),
	})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.approvalService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toRequestResponse(req),
	})
}

// GetRequestByTicket handles GET /api/v1/requests/ticket/:ticket
func (h *Handlers) GetRequestByTicket(c *gin.Context) {
	req, err := h.approvalService.GetByTicket(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toRequestResponse(req),
	})
}

// ListPendingRequests handles GET /api/v1/requests/pending
func (h *Handlers) ListPendingRequests(c *gin.Context) {
	var req ListRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	requests, err := h.approvalService.ListPending(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list pending requests", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve pending requests",
		})
		return
	}

	responses := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, toRequestResponse(r))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    responses,
	})
}

// ApproveRequest handles POST /api/v1/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.decide(c, h.approvalService.Approve)
}

// RejectRequest handles POST /api/v1/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.decide(c, h.approvalService.Reject)
}

func (h *Handlers) decide(c *gin.Context, action func(ctx context.Context, id, managerID, expectedVersion int64) (*entity.ExpenseRequest, error)) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	updated, err := action(c.Request.Context(), id, req.ManagerID, req.Version)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toRequestResponse(updated),
	})
}

// NotifyManager handles POST /api/v1/requests/:id/notify
func (h *Handlers) NotifyManager(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	if err := h.approvalService.RequestApprovalEmail(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// GetHistory handles GET /api/v1/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	history, err := h.approvalService.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// ExportExcel handles GET /api/v1/requests/:id/export/excel
func (h *Handlers) ExportExcel(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportExcel(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ExportPDF handles GET /api/v1/requests/:id/export/pdf
func (h *Handlers) ExportPDF(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportPDF(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// bindItem parses and validates a line-item body, responding on failure.
func (h *Handlers) bindItem(c *gin.Context) (draft.LineItem, bool) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return draft.LineItem{}, false
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "date must be formatted as YYYY-MM-DD",
		})
		return draft.LineItem{}, false
	}

	rate, err := decimal.NewFromString(req.TripAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "trip_amount is not a valid number",
		})
		return draft.LineItem{}, false
	}

	return draft.LineItem{
		Date:        date,
		DayRate:     rate,
		DayCount:    req.DayAmount,
		Category:    req.Category,
		Description: req.Description,
		Destination: req.Destination,
	}, true
}

// requestID parses the :id path parameter, responding on failure.
func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request ID",
		})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto HTTP status codes.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrRequestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrCostCenterNotFound),
		errors.Is(err, service.ErrWorkerNotFound):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrStageIncomplete),
		errors.Is(err, service.ErrNotConfirmation),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrNotApproved),
		errors.Is(err, draft.ErrInvalidItem),
		errors.Is(err, draft.ErrItemNotFound),
		errors.Is(err, draft.ErrNotImage):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, port.ErrVersionConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(status, Response{
			Success: false,
			Error:   "internal server error",
		})
		return
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// toRequestResponse converts domain entity to API response
func toRequestResponse(req *entity.ExpenseRequest) RequestResponse {
	return RequestResponse{
		ID:             req.ID,
		TicketNumber:   req.TicketNumber,
		CostCenterCode: req.CostCenterCode,
		WorkerID:       req.WorkerID,
		SpentValue:     req.SpentValue,
		EmissionDate:   req.EmissionDate.Format(time.RFC3339),
		State:          req.State,
		Version:        req.Version,
		Details:        req.Details,
	}
}
