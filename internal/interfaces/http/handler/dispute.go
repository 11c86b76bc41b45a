package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	receivableapp "github.com/arledger/backend/internal/application/receivable"
	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/interfaces/http/dto"
	"github.com/arledger/backend/internal/interfaces/http/middleware"
)

// DisputeHandler handles dispute API endpoints
type DisputeHandler struct {
	BaseHandler
	disputeService *receivableapp.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler
func NewDisputeHandler(disputeService *receivableapp.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

// Create handles POST /receivable/disputes
func (h *DisputeHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	dispute, err := h.disputeService.Open(c.Request.Context(), tenantID, uuid.MustParse(req.InvoiceID), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toDisputeResponse(dispute))
}

// List handles GET /receivable/disputes
func (h *DisputeHandler) List(c *gin.Context) {
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

	page, err := h.disputeService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toDisputeResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetByID handles GET /receivable/disputes/:id
func (h *DisputeHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid dispute ID")
		return
	}

	dispute, err := h.disputeService.Get(c.Request.Context(), tenantID, uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDisputeResponse(dispute))
}

// Resolve handles POST /receivable/disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid dispute ID")
		return
	}

	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	dispute, err := h.disputeService.Resolve(c.Request.Context(), tenantID, uuid.MustParse(idReq.ID), receivable.DisputeResolution(req.Resolution))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDisputeResponse(dispute))
}

// Reject handles POST /receivable/disputes/:id/reject
func (h *DisputeHandler) Reject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid dispute ID")
		return
	}

	dispute, err := h.disputeService.Reject(c.Request.Context(), tenantID, uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDisputeResponse(dispute))
}
