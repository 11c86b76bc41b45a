package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
)

// CreateInvoiceRequest is the request body for creating an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber string      `json:"invoice_number" binding:"max=64"`
	CustomerID    string      `json:"customer_id" binding:"required,uuid"`
	CustomerName  string      `json:"customer_name" binding:"max=200"`
	Amount        interface{} `json:"amount" binding:"required"`
	DueDate       time.Time   `json:"due_date" binding:"required"`
}

// UpdateInvoiceRequest is the request body for updating an open invoice
type UpdateInvoiceRequest struct {
	CustomerName string      `json:"customer_name" binding:"max=200"`
	Amount       interface{} `json:"amount" binding:"required"`
	DueDate      time.Time   `json:"due_date" binding:"required"`
}

// InvoiceResponse is the wire representation of an invoice
type InvoiceResponse struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	InvoiceNumber    string     `json:"invoice_number"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	CustomerName     string     `json:"customer_name"`
	Amount           string     `json:"amount"`
	Status           string     `json:"status"`
	DueDate          time.Time  `json:"due_date"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	MatchedPaymentID *uuid.UUID `json:"matched_payment_id,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toInvoiceResponse(inv *receivable.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		InvoiceNumber:    inv.InvoiceNumber,
		CustomerID:       inv.CustomerID,
		CustomerName:     inv.CustomerName,
		Amount:           inv.Amount.Amount().StringFixed(2),
		Status:           string(inv.Status),
		DueDate:          inv.DueDate,
		PaidAt:           inv.PaidAt,
		MatchedPaymentID: inv.MatchedPaymentID,
		Version:          inv.Version,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

func toInvoiceResponses(invoices []*receivable.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out
}

// CreatePaymentRequest is the request body for recording a payment
type CreatePaymentRequest struct {
	PaymentNumber string      `json:"payment_number" binding:"max=64"`
	CustomerID    string      `json:"customer_id" binding:"omitempty,uuid"`
	Amount        interface{} `json:"amount" binding:"required"`
	PaymentDate   time.Time   `json:"payment_date"`
	Reference     string      `json:"reference" binding:"max=500"`
}

// PaymentResponse is the wire representation of a payment
type PaymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	PaymentNumber    string     `json:"payment_number"`
	CustomerID       *uuid.UUID `json:"customer_id,omitempty"`
	Amount           string     `json:"amount"`
	PaymentDate      time.Time  `json:"payment_date"`
	Reference        string     `json:"reference,omitempty"`
	Status           string     `json:"status"`
	MatchedInvoiceID *uuid.UUID `json:"matched_invoice_id,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toPaymentResponse(p *receivable.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		TenantID:         p.TenantID,
		PaymentNumber:    p.PaymentNumber,
		CustomerID:       p.CustomerID,
		Amount:           p.Amount.Amount().StringFixed(2),
		PaymentDate:      p.PaymentDate,
		Reference:        p.Reference,
		Status:           string(p.Status),
		MatchedInvoiceID: p.MatchedInvoiceID,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toPaymentResponses(payments []*receivable.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

// CreateDisputeRequest is the request body for opening a dispute
type CreateDisputeRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,uuid"`
	Reason    string `json:"reason" binding:"required,min=1,max=2000"`
}

// ResolveDisputeRequest is the request body for resolving a dispute
type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=reopen write_off"`
}

// DisputeResponse is the wire representation of a dispute
type DisputeResponse struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	InvoiceID  uuid.UUID  `json:"invoice_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Version    int        `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toDisputeResponse(d *receivable.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:         d.ID,
		TenantID:   d.TenantID,
		InvoiceID:  d.InvoiceID,
		Reason:     d.Reason,
		Status:     string(d.Status),
		Resolution: string(d.Resolution),
		ResolvedAt: d.ResolvedAt,
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toDisputeResponses(disputes []*receivable.Dispute) []DisputeResponse {
	out := make([]DisputeResponse, 0, len(disputes))
	for _, d := range disputes {
		out = append(out, toDisputeResponse(d))
	}
	return out
}

// toFilter converts list query parameters into a repository filter
func toFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	if orderBy != "" {
		filter.OrderBy = orderBy
	}
	if orderDir != "" {
		filter.OrderDir = orderDir
	}
	filter.Search = search
	return filter
}
