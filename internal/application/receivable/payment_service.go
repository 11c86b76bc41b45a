package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arledger/backend/internal/domain/reconciliation"
	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
	"github.com/arledger/backend/internal/infrastructure/telemetry"
)

// CreatePaymentRequest carries payment creation input
type CreatePaymentRequest struct {
	PaymentNumber string
	CustomerID    *uuid.UUID
	Amount        interface{}
	PaymentDate   time.Time
	Reference     string
}

// PaymentService manages payment CRUD
type PaymentService struct {
	payments receivable.PaymentRepository
	logger   *zap.Logger
}

// NewPaymentService creates a payment service
func NewPaymentService(payments receivable.PaymentRepository, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		logger:   logger.Named("payment"),
	}
}

// Create records an incoming payment
func (s *PaymentService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*receivable.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	paymentNumber := req.PaymentNumber
	if paymentNumber == "" {
		generated, err := s.payments.GeneratePaymentNumber(ctx, tenantID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		paymentNumber = generated
	} else {
		exists, err := s.payments.ExistsByNumber(ctx, tenantID, paymentNumber)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Payment number already in use")
		}
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	amount := valueobject.NewMoney(reconciliation.NormalizeAmount(req.Amount), valueobject.DefaultCurrency)
	payment, err := receivable.NewPayment(tenantID, paymentNumber, req.CustomerID, amount, paymentDate, req.Reference)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.payments.Save(ctx, payment); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "payment_recorded",
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		telemetry.SpanAttrAmount, payment.Amount.String(),
	)
	s.logger.Info("Payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_number", payment.PaymentNumber),
	)
	return payment, nil
}

// Get returns one payment within the tenant
func (s *PaymentService) Get(ctx context.Context, tenantID, paymentID uuid.UUID) (*receivable.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get")
	defer span.End()

	payment, err := s.payments.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return payment, nil
}

// List returns a page of payments
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[*receivable.Payment], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "list")
	defer span.End()

	payments, err := s.payments.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	total, err := s.payments.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return shared.NewPaginated(payments, total, filter.Page, filter.PageSize), nil
}

// ResetStatus returns a reviewed payment to the unmatched pool so
// reconciliation can be re-run.
func (s *PaymentService) ResetStatus(ctx context.Context, tenantID, paymentID uuid.UUID) (*receivable.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "reset_status")
	defer span.End()

	payment, err := s.payments.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := payment.ResetUnmatched(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	payment.IncrementVersion()

	if err := s.payments.SaveWithLock(ctx, payment); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return payment, nil
}

// Delete removes an unmatched payment
func (s *PaymentService) Delete(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete")
	defer span.End()

	payment, err := s.payments.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if payment.IsMatched() {
		return shared.NewDomainError("INVALID_STATE", "Matched payments cannot be deleted")
	}

	if err := s.payments.DeleteForTenant(ctx, tenantID, paymentID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Payment deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", paymentID.String()),
	)
	return nil
}
