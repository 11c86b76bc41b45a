package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arledger/backend/internal/domain/reconciliation"
	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
	"github.com/arledger/backend/internal/infrastructure/telemetry"
)

// CreateInvoiceRequest carries invoice creation input. Amount accepts
// whatever the payload supplied; the service normalizes it.
type CreateInvoiceRequest struct {
	InvoiceNumber string
	CustomerID    uuid.UUID
	CustomerName  string
	Amount        interface{}
	DueDate       time.Time
}

// UpdateInvoiceRequest carries invoice update input
type UpdateInvoiceRequest struct {
	CustomerName string
	Amount       interface{}
	DueDate      time.Time
}

// OutstandingStats summarizes the open receivable position
type OutstandingStats struct {
	OpenCount       int64           `json:"open_count"`
	PaidCount       int64           `json:"paid_count"`
	DisputedCount   int64           `json:"disputed_count"`
	WrittenOffCount int64           `json:"written_off_count"`
	OpenAmount      decimal.Decimal `json:"open_amount"`
}

// InvoiceService manages invoice CRUD
type InvoiceService struct {
	invoices receivable.InvoiceRepository
	logger   *zap.Logger
}

// NewInvoiceService creates an invoice service
func NewInvoiceService(invoices receivable.InvoiceRepository, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		logger:   logger.Named("invoice"),
	}
}

// Create creates an invoice, generating a number when none is given
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		generated, err := s.invoices.GenerateInvoiceNumber(ctx, tenantID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		invoiceNumber = generated
	} else {
		exists, err := s.invoices.ExistsByNumber(ctx, tenantID, invoiceNumber)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice number already in use")
		}
	}

	amount := valueobject.NewMoney(reconciliation.NormalizeAmount(req.Amount), valueobject.DefaultCurrency)
	invoice, err := receivable.NewInvoice(tenantID, invoiceNumber, req.CustomerID, req.CustomerName, amount, req.DueDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.invoices.Save(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "invoice_created",
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrAmount, invoice.Amount.String(),
	)
	s.logger.Info("Invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	return invoice, nil
}

// Get returns one invoice within the tenant
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "get")
	defer span.End()

	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return invoice, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*receivable.Invoice], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list")
	defer span.End()

	invoices, err := s.invoices.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	total, err := s.invoices.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return shared.NewPaginated(invoices, total, filter.Page, filter.PageSize), nil
}

// Update updates an open invoice with optimistic locking
func (s *InvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()

	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	amount := valueobject.NewMoney(reconciliation.NormalizeAmount(req.Amount), valueobject.DefaultCurrency)
	if err := invoice.UpdateDetails(req.CustomerName, amount, req.DueDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice.IncrementVersion()

	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return invoice, nil
}

// Delete removes an invoice. Settled invoices stay for the audit trail.
func (s *InvoiceService) Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete")
	defer span.End()

	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if invoice.Status == receivable.InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Settled invoices cannot be deleted")
	}

	if err := s.invoices.DeleteForTenant(ctx, tenantID, invoiceID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Invoice deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
	)
	return nil
}

// Stats summarizes invoice counts and the open amount
func (s *InvoiceService) Stats(ctx context.Context, tenantID uuid.UUID) (*OutstandingStats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "stats")
	defer span.End()

	stats := &OutstandingStats{}
	counts := []struct {
		status receivable.InvoiceStatus
		target *int64
	}{
		{receivable.InvoiceStatusOpen, &stats.OpenCount},
		{receivable.InvoiceStatusPaid, &stats.PaidCount},
		{receivable.InvoiceStatusDisputed, &stats.DisputedCount},
		{receivable.InvoiceStatusWrittenOff, &stats.WrittenOffCount},
	}
	for _, c := range counts {
		count, err := s.invoices.CountByStatus(ctx, tenantID, c.status)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		*c.target = count
	}

	openAmount, err := s.invoices.SumOpenAmount(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	stats.OpenAmount = openAmount
	return stats, nil
}
