package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	receivableapp "github.com/arledger/backend/internal/application/receivable"
	"github.com/arledger/backend/internal/interfaces/http/dto"
	"github.com/arledger/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *receivableapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *receivableapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create handles POST /receivable/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, receivableapp.CreateInvoiceRequest{
		InvoiceNumber: req.InvoiceNumber,
		CustomerID:    customerID,
		CustomerName:  req.CustomerName,
		Amount:        req.Amount,
		DueDate:       req.DueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(invoice))
}

// List handles GET /receivable/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
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

	page, err := h.invoiceService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetByID handles GET /receivable/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), tenantID, uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// Update handles PUT /receivable/invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), tenantID, uuid.MustParse(idReq.ID), receivableapp.UpdateInvoiceRequest{
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		DueDate:      req.DueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// Delete handles DELETE /receivable/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, uuid.MustParse(req.ID)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Stats handles GET /receivable/invoices/stats
func (h *InvoiceHandler) Stats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.invoiceService.Stats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
