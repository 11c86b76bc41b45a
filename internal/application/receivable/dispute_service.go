package receivable

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/telemetry"
)

// DisputeService manages the dispute workflow. Opening a dispute holds
// the invoice out of the matching pool; resolving it reopens the
// invoice or writes it off.
type DisputeService struct {
	disputes receivable.DisputeRepository
	invoices receivable.InvoiceRepository
	logger   *zap.Logger
}

// NewDisputeService creates a dispute service
func NewDisputeService(disputes receivable.DisputeRepository, invoices receivable.InvoiceRepository, logger *zap.Logger) *DisputeService {
	return &DisputeService{
		disputes: disputes,
		invoices: invoices,
		logger:   logger.Named("dispute"),
	}
}

// Open opens a dispute against an open invoice
func (s *DisputeService) Open(ctx context.Context, tenantID, invoiceID uuid.UUID, reason string) (*receivable.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "open")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
	)

	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if _, err := s.disputes.FindOpenByInvoice(ctx, tenantID, invoiceID); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice already has an open dispute")
	} else if err != shared.ErrNotFound {
		telemetry.RecordError(span, err)
		return nil, err
	}

	dispute, err := receivable.NewDispute(tenantID, invoiceID, reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := invoice.MarkDisputed(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice.IncrementVersion()
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.disputes.Save(ctx, dispute); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "dispute_opened", telemetry.SpanAttrDisputeID, dispute.ID.String())
	s.logger.Info("Dispute opened",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("dispute_id", dispute.ID.String()),
	)
	return dispute, nil
}

// Get returns one dispute within the tenant
func (s *DisputeService) Get(ctx context.Context, tenantID, disputeID uuid.UUID) (*receivable.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "get")
	defer span.End()

	dispute, err := s.disputes.FindByIDForTenant(ctx, tenantID, disputeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return dispute, nil
}

// List returns a page of disputes
func (s *DisputeService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*receivable.Dispute], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "list")
	defer span.End()

	disputes, err := s.disputes.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	total, err := s.disputes.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return shared.NewPaginated(disputes, total, filter.Page, filter.PageSize), nil
}

// Resolve closes a dispute; the invoice reopens or is written off per
// the resolution.
func (s *DisputeService) Resolve(ctx context.Context, tenantID, disputeID uuid.UUID, resolution receivable.DisputeResolution) (*receivable.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "resolve")
	defer span.End()

	dispute, err := s.disputes.FindByIDForTenant(ctx, tenantID, disputeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, dispute.InvoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := dispute.Resolve(resolution); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	switch resolution {
	case receivable.DisputeResolutionReopen:
		err = invoice.Reopen()
	case receivable.DisputeResolutionWriteOff:
		err = invoice.WriteOff()
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice.IncrementVersion()
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.disputes.Save(ctx, dispute); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Dispute resolved",
		zap.String("dispute_id", disputeID.String()),
		zap.String("resolution", string(resolution)),
	)
	return dispute, nil
}

// Reject dismisses a dispute and reopens the invoice
func (s *DisputeService) Reject(ctx context.Context, tenantID, disputeID uuid.UUID) (*receivable.Dispute, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispute", "reject")
	defer span.End()

	dispute, err := s.disputes.FindByIDForTenant(ctx, tenantID, disputeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, dispute.InvoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := dispute.Reject(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := invoice.Reopen(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice.IncrementVersion()
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.disputes.Save(ctx, dispute); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Dispute rejected", zap.String("dispute_id", disputeID.String()))
	return dispute, nil
}
