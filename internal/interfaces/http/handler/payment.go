package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	receivableapp "github.com/arledger/backend/internal/application/receivable"
	reconciliationapp "github.com/arledger/backend/internal/application/reconciliation"
	"github.com/arledger/backend/internal/interfaces/http/dto"
	"github.com/arledger/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader carries the client-chosen key that makes
// reconcile submissions safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment API endpoints, including reconciliation
type PaymentHandler struct {
	BaseHandler
	paymentService        *receivableapp.PaymentService
	reconciliationService *reconciliationapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *receivableapp.PaymentService, reconciliationService *reconciliationapp.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService:        paymentService,
		reconciliationService: reconciliationService,
	}
}

// Create handles POST /receivable/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		parsed, err := uuid.Parse(req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID")
			return
		}
		customerID = &parsed
	}

	payment, err := h.paymentService.Create(c.Request.Context(), tenantID, receivableapp.CreatePaymentRequest{
		PaymentNumber: req.PaymentNumber,
		CustomerID:    customerID,
		Amount:        req.Amount,
		PaymentDate:   req.PaymentDate,
		Reference:     req.Reference,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(payment))
}

// List handles GET /receivable/payments
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter := toFilter(req.Page, req.PageSize, req.OrderBy, req.OrderDir, req.Search)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	page, err := h.paymentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toPaymentResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetByID handles GET /receivable/payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.Get(c.Request.Context(), tenantID, uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Reconcile handles POST /receivable/payments/:id/reconcile. It matches
// the payment against the tenant's open invoices, settling an exact hit
// or returning ranked combination suggestions.
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	result, err := h.reconciliationService.Reconcile(c.Request.Context(), tenantID, uuid.MustParse(req.ID), idempotencyKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ResetStatus handles POST /receivable/payments/:id/reset. It returns a
// needs_review payment to the unmatched pool.
func (h *PaymentHandler) ResetStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.ResetStatus(c.Request.Context(), tenantID, uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// Delete handles DELETE /receivable/payments/:id
func (h *PaymentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	if err := h.paymentService.Delete(c.Request.Context(), tenantID, uuid.MustParse(req.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
