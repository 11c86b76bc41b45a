package receivable

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
)

// PaymentStatus represents the matching state of an incoming payment
type PaymentStatus string

const (
	PaymentStatusUnmatched   PaymentStatus = "UNMATCHED"
	PaymentStatusMatched     PaymentStatus = "MATCHED"
	PaymentStatusNeedsReview PaymentStatus = "NEEDS_REVIEW"
)

// IsValid reports whether the status is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnmatched, PaymentStatusMatched, PaymentStatusNeedsReview:
		return true
	}
	return false
}

// Payment is an incoming remittance awaiting reconciliation against an
// invoice. CustomerID is optional since the remitter may be unidentified.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber    string            `json:"payment_number"`
	CustomerID       *uuid.UUID        `json:"customer_id,omitempty"`
	Amount           valueobject.Money `json:"amount"`
	PaymentDate      time.Time         `json:"payment_date"`
	Reference        string            `json:"reference"`
	Status           PaymentStatus     `json:"status"`
	MatchedInvoiceID *uuid.UUID        `json:"matched_invoice_id,omitempty"`
}

// NewPayment creates an unmatched payment
func NewPayment(tenantID uuid.UUID, paymentNumber string, customerID *uuid.UUID, amount valueobject.Money, paymentDate time.Time, reference string) (*Payment, error) {
	if strings.TrimSpace(paymentNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment number is required")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment amount cannot be negative")
	}
	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       strings.TrimSpace(paymentNumber),
		CustomerID:          customerID,
		Amount:              amount,
		PaymentDate:         paymentDate,
		Reference:           strings.TrimSpace(reference),
		Status:              PaymentStatusUnmatched,
	}, nil
}

// IsMatched reports whether the payment has been settled
func (p *Payment) IsMatched() bool {
	return p.Status == PaymentStatusMatched
}

// MarkMatched links the payment to a settled invoice
func (p *Payment) MarkMatched(invoiceID uuid.UUID) error {
	if p.Status == PaymentStatusMatched {
		return shared.NewDomainError("INVALID_STATE", "Payment is already matched")
	}
	p.Status = PaymentStatusMatched
	p.MatchedInvoiceID = &invoiceID
	p.UpdatedAt = time.Now()
	return nil
}

// MarkNeedsReview flags the payment for manual review, leaving it
// without a matched invoice.
func (p *Payment) MarkNeedsReview() error {
	if p.Status == PaymentStatusMatched {
		return shared.NewDomainError("INVALID_STATE", "Matched payments cannot be flagged for review")
	}
	p.Status = PaymentStatusNeedsReview
	p.MatchedInvoiceID = nil
	p.UpdatedAt = time.Now()
	return nil
}

// ResetUnmatched returns a reviewed payment to the unmatched pool so
// reconciliation can be re-run.
func (p *Payment) ResetUnmatched() error {
	if p.Status == PaymentStatusMatched {
		return shared.NewDomainError("INVALID_STATE", "Matched payments cannot be reset")
	}
	p.Status = PaymentStatusUnmatched
	p.MatchedInvoiceID = nil
	p.UpdatedAt = time.Now()
	return nil
}
