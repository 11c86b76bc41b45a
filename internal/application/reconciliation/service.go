package reconciliation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/arledger/backend/internal/domain/reconciliation"
	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/telemetry"
)

// Reconcile result statuses
const (
	StatusMatched     = "matched"
	StatusNeedsReview = "needs_review"
)

// Settler commits an exact match atomically
type Settler interface {
	SettleExactMatch(ctx context.Context, invoice *receivable.Invoice, payment *receivable.Payment) error
}

// Result is the outcome of a reconcile run
type Result struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	ExactMatches   []domain.Candidate  `json:"exact_matches"`
	PartialMatches []domain.Suggestion `json:"partial_matches"`
}

// Service orchestrates payment reconciliation: exact matching with an
// atomic settlement, falling back to ranked suggestions and manual
// review when nothing settles.
type Service struct {
	invoices    receivable.InvoiceRepository
	payments    receivable.PaymentRepository
	settler     Settler
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	params      domain.Params
	logger      *zap.Logger
}

// NewService creates a reconciliation service. The idempotency store
// may be nil, which disables duplicate-submission detection.
func NewService(
	invoices receivable.InvoiceRepository,
	payments receivable.PaymentRepository,
	settler Settler,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	params domain.Params,
	logger *zap.Logger,
) *Service {
	return &Service{
		invoices:    invoices,
		payments:    payments,
		settler:     settler,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		params:      params,
		logger:      logger.Named("reconciliation"),
	}
}

// Reconcile matches one payment against the tenant's open invoices.
// idempotencyKey may be empty, in which case retries are not detected.
func (s *Service) Reconcile(ctx context.Context, tenantID, paymentID uuid.UUID, idempotencyKey string) (*Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPaymentID, paymentID.String(),
	)

	if err := s.checkIdempotency(ctx, tenantID, paymentID, idempotencyKey); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	payment, err := s.payments.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if payment.IsMatched() {
		telemetry.SetAttribute(span, telemetry.SpanAttrMatchStatus, StatusMatched)
		return s.alreadyMatchedResult(ctx, payment), nil
	}

	openInvoices, err := s.invoices.FindOpenForTenant(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}

	target := domain.NormalizeAmount(payment.Amount)
	candidates := make([]domain.Candidate, len(openInvoices))
	for i, invoice := range openInvoices {
		candidates[i] = domain.Candidate{
			ID:            invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			Amount:        invoice.Amount.Amount(),
		}
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCandidateSize, len(candidates))

	if exact := domain.FindExactMatch(target, candidates, s.params.Epsilon); exact != nil {
		result, settleErr := s.settleExact(ctx, openInvoices, *exact, payment)
		if settleErr == nil {
			telemetry.SetAttribute(span, telemetry.SpanAttrMatchStatus, StatusMatched)
			telemetry.AddEvent(span, "exact_match_settled",
				telemetry.SpanAttrInvoiceID, exact.ID.String())
			return result, nil
		}
		// The settlement lost a race or the store failed. Degrade to
		// manual review rather than failing the request: the payment
		// stays unmatched and suggestions are still returned.
		s.logger.Warn("Exact match settlement failed, degrading to review",
			zap.String("tenant_id", tenantID.String()),
			zap.String("payment_id", paymentID.String()),
			zap.String("invoice_id", exact.ID.String()),
			zap.Error(settleErr),
		)
		telemetry.AddEvent(span, "settlement_degraded")
	}

	suggestions := domain.Suggest(target, candidates, s.params)
	telemetry.SetAttribute(span, telemetry.SpanAttrMatchCount, len(suggestions))

	s.flagNeedsReview(ctx, payment)
	telemetry.SetAttribute(span, telemetry.SpanAttrMatchStatus, StatusNeedsReview)

	return &Result{
		Status:         StatusNeedsReview,
		Message:        "No exact match found; payment flagged for review",
		ExactMatches:   []domain.Candidate{},
		PartialMatches: suggestions,
	}, nil
}

// checkIdempotency rejects a repeated submission of the same key. A
// store failure is logged and ignored so reconciliation stays available.
func (s *Service) checkIdempotency(ctx context.Context, tenantID, paymentID uuid.UUID, key string) error {
	if key == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return nil
	}
	storeKey := fmt.Sprintf("%s:%s:%s", tenantID, paymentID, key)
	fresh, err := s.idempotency.MarkProcessed(ctx, storeKey, s.idemConfig.TTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, continuing without guard", zap.Error(err))
		return nil
	}
	if !fresh {
		return shared.NewDomainError("ALREADY_EXISTS", "Duplicate reconcile submission")
	}
	return nil
}

// settleExact mutates copies of the aggregates and commits them in one
// transaction; the caller's aggregates stay pristine on failure.
func (s *Service) settleExact(ctx context.Context, openInvoices []*receivable.Invoice, exact domain.Candidate, payment *receivable.Payment) (*Result, error) {
	var invoice *receivable.Invoice
	for _, candidate := range openInvoices {
		if candidate.ID == exact.ID {
			invoice = candidate
			break
		}
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}

	settledInvoice := *invoice
	settledPayment := *payment
	if err := settledInvoice.MarkPaid(settledPayment.ID); err != nil {
		return nil, err
	}
	settledInvoice.IncrementVersion()
	if err := settledPayment.MarkMatched(settledInvoice.ID); err != nil {
		return nil, err
	}
	settledPayment.IncrementVersion()

	if err := s.settler.SettleExactMatch(ctx, &settledInvoice, &settledPayment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment settled against invoice",
		zap.String("tenant_id", payment.TenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("amount", payment.Amount.String()),
	)

	return &Result{
		Status:         StatusMatched,
		Message:        "Exact match found and settled",
		ExactMatches:   []domain.Candidate{exact},
		PartialMatches: []domain.Suggestion{},
	}, nil
}

// flagNeedsReview moves the payment to the review queue. Failures are
// logged, not returned: the suggestions are still useful to the caller.
func (s *Service) flagNeedsReview(ctx context.Context, payment *receivable.Payment) {
	if payment.Status == receivable.PaymentStatusNeedsReview {
		return
	}
	if err := payment.MarkNeedsReview(); err != nil {
		s.logger.Warn("Cannot flag payment for review", zap.Error(err))
		return
	}
	payment.IncrementVersion()
	if err := s.payments.SaveWithLock(ctx, payment); err != nil {
		s.logger.Warn("Failed to persist review flag",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
	}
}

// alreadyMatchedResult reports an idempotent outcome for a payment that
// was settled earlier.
func (s *Service) alreadyMatchedResult(ctx context.Context, payment *receivable.Payment) *Result {
	matches := []domain.Candidate{}
	if payment.MatchedInvoiceID != nil {
		if invoice, err := s.invoices.FindByIDForTenant(ctx, payment.TenantID, *payment.MatchedInvoiceID); err == nil {
			matches = append(matches, domain.Candidate{
				ID:            invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				Amount:        invoice.Amount.Amount(),
			})
		}
	}
	return &Result{
		Status:         StatusMatched,
		Message:        "Payment already matched",
		ExactMatches:   matches,
		PartialMatches: []domain.Suggestion{},
	}
}
