package receivable

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arledger/backend/internal/domain/shared"
)

// DisputeStatus represents the lifecycle state of a dispute
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
	DisputeStatusRejected DisputeStatus = "REJECTED"
)

// DisputeResolution determines what happens to the invoice when a
// dispute is resolved.
type DisputeResolution string

const (
	// DisputeResolutionReopen returns the invoice to the matching pool
	DisputeResolutionReopen DisputeResolution = "reopen"
	// DisputeResolutionWriteOff abandons collection of the invoice
	DisputeResolutionWriteOff DisputeResolution = "write_off"
)

// IsValid reports whether the resolution is known
func (r DisputeResolution) IsValid() bool {
	return r == DisputeResolutionReopen || r == DisputeResolutionWriteOff
}

// Dispute records a customer objection against an invoice. While a
// dispute is open the invoice is held out of the matching pool.
type Dispute struct {
	shared.TenantAggregateRoot
	InvoiceID  uuid.UUID         `json:"invoice_id"`
	Reason     string            `json:"reason"`
	Status     DisputeStatus     `json:"status"`
	Resolution DisputeResolution `json:"resolution,omitempty"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// NewDispute opens a dispute against an invoice
func NewDispute(tenantID, invoiceID uuid.UUID, reason string) (*Dispute, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice ID is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Dispute reason is required")
	}
	return &Dispute{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		Reason:              strings.TrimSpace(reason),
		Status:              DisputeStatusOpen,
	}, nil
}

// IsOpen reports whether the dispute is still pending
func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeStatusOpen
}

// Resolve closes the dispute with the given resolution
func (d *Dispute) Resolve(resolution DisputeResolution) error {
	if d.Status != DisputeStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open disputes can be resolved")
	}
	if !resolution.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown dispute resolution")
	}
	now := time.Now()
	d.Status = DisputeStatusResolved
	d.Resolution = resolution
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}

// Reject dismisses the dispute, returning the invoice to the pool
func (d *Dispute) Reject() error {
	if d.Status != DisputeStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open disputes can be rejected")
	}
	now := time.Now()
	d.Status = DisputeStatusRejected
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}
