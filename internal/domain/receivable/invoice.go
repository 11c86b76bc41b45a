package receivable

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusOpen       InvoiceStatus = "OPEN"
	InvoiceStatusPaid       InvoiceStatus = "PAID"
	InvoiceStatusDisputed   InvoiceStatus = "DISPUTED"
	InvoiceStatusWrittenOff InvoiceStatus = "WRITTEN_OFF"
)

// IsValid reports whether the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusPaid, InvoiceStatusDisputed, InvoiceStatusWrittenOff:
		return true
	}
	return false
}

// Invoice is a receivable owed by a customer. Only OPEN invoices are
// eligible for payment matching.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber    string            `json:"invoice_number"`
	CustomerID       uuid.UUID         `json:"customer_id"`
	CustomerName     string            `json:"customer_name"`
	Amount           valueobject.Money `json:"amount"`
	Status           InvoiceStatus     `json:"status"`
	DueDate          time.Time         `json:"due_date"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	MatchedPaymentID *uuid.UUID        `json:"matched_payment_id,omitempty"`
}

// NewInvoice creates an open invoice
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, customerID uuid.UUID, customerName string, amount valueobject.Money, dueDate time.Time) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice amount must be positive")
	}
	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       strings.TrimSpace(invoiceNumber),
		CustomerID:          customerID,
		CustomerName:        strings.TrimSpace(customerName),
		Amount:              amount,
		Status:              InvoiceStatusOpen,
		DueDate:             dueDate,
	}, nil
}

// IsOpen reports whether the invoice is eligible for matching
func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusOpen
}

// IsOverdue reports whether an open invoice is past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusOpen && now.After(i.DueDate)
}

// MarkPaid settles the invoice against a payment. Only open invoices
// can be paid.
func (i *Invoice) MarkPaid(paymentID uuid.UUID) error {
	if i.Status != InvoiceStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open invoices can be marked paid")
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.MatchedPaymentID = &paymentID
	i.UpdatedAt = now
	return nil
}

// MarkDisputed takes the invoice out of the matching pool
func (i *Invoice) MarkDisputed() error {
	if i.Status != InvoiceStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open invoices can be disputed")
	}
	i.Status = InvoiceStatusDisputed
	i.UpdatedAt = time.Now()
	return nil
}

// Reopen returns a disputed invoice to the matching pool
func (i *Invoice) Reopen() error {
	if i.Status != InvoiceStatusDisputed {
		return shared.NewDomainError("INVALID_STATE", "Only disputed invoices can be reopened")
	}
	i.Status = InvoiceStatusOpen
	i.UpdatedAt = time.Now()
	return nil
}

// WriteOff abandons collection of an open or disputed invoice
func (i *Invoice) WriteOff() error {
	if i.Status != InvoiceStatusOpen && i.Status != InvoiceStatusDisputed {
		return shared.NewDomainError("INVALID_STATE", "Only open or disputed invoices can be written off")
	}
	i.Status = InvoiceStatusWrittenOff
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateDetails updates mutable fields of an open invoice
func (i *Invoice) UpdateDetails(customerName string, amount valueobject.Money, dueDate time.Time) error {
	if i.Status != InvoiceStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open invoices can be updated")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Invoice amount must be positive")
	}
	i.CustomerName = strings.TrimSpace(customerName)
	i.Amount = amount
	i.DueDate = dueDate
	i.UpdatedAt = time.Now()
	return nil
}
