package reconciliation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/arledger/backend/internal/domain/reconciliation"
	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
	"github.com/arledger/backend/internal/infrastructure/cache"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*receivable.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*receivable.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenForTenant(ctx context.Context, tenantID uuid.UUID) ([]*receivable.Invoice, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *receivable.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *receivable.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status receivable.InvoiceStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) SumOpenAmount(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (*receivable.Payment, error) {
	args := m.Called(ctx, tenantID, paymentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*receivable.Payment, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*receivable.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *receivable.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, payment *receivable.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, paymentNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) SettleExactMatch(ctx context.Context, invoice *receivable.Invoice, payment *receivable.Payment) error {
	args := m.Called(ctx, invoice, payment)
	return args.Error(0)
}

type fixture struct {
	invoices *MockInvoiceRepository
	payments *MockPaymentRepository
	settler  *MockSettler
	service  *Service
}

func newFixture(t *testing.T, store shared.IdempotencyStore) *fixture {
	t.Helper()
	f := &fixture{
		invoices: new(MockInvoiceRepository),
		payments: new(MockPaymentRepository),
		settler:  new(MockSettler),
	}
	f.service = NewService(
		f.invoices, f.payments, f.settler,
		store, shared.DefaultIdempotencyConfig(),
		domain.DefaultParams(), zap.NewNop(),
	)
	return f
}

func makeInvoice(t *testing.T, tenantID uuid.UUID, number string, amount int64) *receivable.Invoice {
	t.Helper()
	invoice, err := receivable.NewInvoice(tenantID, number, uuid.New(), "Acme",
		valueobject.NewMoneyFromInt(amount, valueobject.USD), time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	return invoice
}

func makePayment(t *testing.T, tenantID uuid.UUID, amount int64) *receivable.Payment {
	t.Helper()
	payment, err := receivable.NewPayment(tenantID, "PAY-001", nil,
		valueobject.NewMoneyFromInt(amount, valueobject.USD), time.Now(), "wire")
	require.NoError(t, err)
	return payment
}

func TestReconcilePaymentNotFound(t *testing.T) {
	f := newFixture(t, nil)
	tenantID := uuid.New()
	paymentID := uuid.New()

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, paymentID).
		Return(nil, shared.ErrNotFound)

	_, err := f.service.Reconcile(context.Background(), tenantID, paymentID, "")
	assert.Equal(t, shared.ErrNotFound, err)
	f.settler.AssertNotCalled(t, "SettleExactMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileExactMatchSettles(t *testing.T) {
	f := newFixture(t, nil)
	tenantID := uuid.New()
	payment := makePayment(t, tenantID, 5000)
	invoices := []*receivable.Invoice{
		makeInvoice(t, tenantID, "INV-001", 5000),
		makeInvoice(t, tenantID, "INV-002", 2000),
		makeInvoice(t, tenantID, "INV-003", 3200),
	}

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment.ID).Return(payment, nil)
	f.invoices.On("FindOpenForTenant", mock.Anything, tenantID).Return(invoices, nil)
	f.settler.On("SettleExactMatch", mock.Anything,
		mock.MatchedBy(func(inv *receivable.Invoice) bool {
			return inv.ID == invoices[0].ID && inv.Status == receivable.InvoiceStatusPaid && inv.Version == 2
		}),
		mock.MatchedBy(func(p *receivable.Payment) bool {
			return p.ID == payment.ID && p.Status == receivable.PaymentStatusMatched && p.Version == 2
		}),
	).Return(nil)

	result, err := f.service.Reconcile(context.Background(), tenantID, payment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, result.Status)
	require.Len(t, result.ExactMatches, 1)
	assert.Equal(t, "INV-001", result.ExactMatches[0].InvoiceNumber)
	assert.Empty(t, result.PartialMatches)

	// The caller's aggregate was not mutated by the settlement copies
	assert.Equal(t, receivable.PaymentStatusUnmatched, payment.Status)
	f.payments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.settler.AssertExpectations(t)
}

func TestReconcileLostRaceDegradesToReview(t *testing.T) {
	f := newFixture(t, nil)
	tenantID := uuid.New()
	payment := makePayment(t, tenantID, 5000)
	invoices := []*receivable.Invoice{
		makeInvoice(t, tenantID, "INV-001", 5000),
		makeInvoice(t, tenantID, "INV-002", 4800),
	}

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment.ID).Return(payment, nil)
	f.invoices.On("FindOpenForTenant", mock.Anything, tenantID).Return(invoices, nil)
	f.settler.On("SettleExactMatch", mock.Anything, mock.Anything, mock.Anything).
		Return(shared.ErrConcurrencyConflict)
	f.payments.On("SaveWithLock", mock.Anything,
		mock.MatchedBy(func(p *receivable.Payment) bool {
			return p.Status == receivable.PaymentStatusNeedsReview && p.MatchedInvoiceID == nil
		}),
	).Return(nil)

	result, err := f.service.Reconcile(context.Background(), tenantID, payment.ID, "")
	require.NoError(t, err, "a lost race degrades instead of failing")
	assert.Equal(t, StatusNeedsReview, result.Status)
	assert.Empty(t, result.ExactMatches)
	assert.NotEmpty(t, result.PartialMatches, "suggestions still returned after degradation")

	f.payments.AssertExpectations(t)
}

func TestReconcileNoExactMatchSuggests(t *testing.T) {
	f := newFixture(t, nil)
	tenantID := uuid.New()
	payment := makePayment(t, tenantID, 5300)
	invoices := []*receivable.Invoice{
		makeInvoice(t, tenantID, "INV-A", 2000),
		makeInvoice(t, tenantID, "INV-B", 3200),
		makeInvoice(t, tenantID, "INV-C", 10000),
	}

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment.ID).Return(payment, nil)
	f.invoices.On("FindOpenForTenant", mock.Anything, tenantID).Return(invoices, nil)
	f.payments.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Reconcile(context.Background(), tenantID, payment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsReview, result.Status)
	assert.Empty(t, result.ExactMatches)

	require.Len(t, result.PartialMatches, 1)
	top := result.PartialMatches[0]
	assert.Equal(t, "5200", top.Total.String())
	assert.Equal(t, "100", top.Difference.String())
	require.Len(t, top.Invoices, 2)
	assert.Equal(t, "INV-A", top.Invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-B", top.Invoices[1].InvoiceNumber)

	f.settler.AssertNotCalled(t, "SettleExactMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileEmptyPoolFlagsReview(t *testing.T) {
	f := newFixture(t, nil)
	tenantID := uuid.New()
	payment := makePayment(t, tenantID, 100)

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment.ID).Return(payment, nil)
	f.invoices.On("FindOpenForTenant", mock.Anything, tenantID).Return([]*receivable.Invoice{}, nil)
	f.payments.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Reconcile(context.Background(), tenantID, payment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsReview, result.Status)
	assert.Empty(t, result.PartialMatches)
}

func TestReconcileAlreadyMatchedIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	tenantID := uuid.New()
	payment := makePayment(t, tenantID, 5000)
	invoice := makeInvoice(t, tenantID, "INV-001", 5000)
	require.NoError(t, payment.MarkMatched(invoice.ID))

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment.ID).Return(payment, nil)
	f.invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)

	result, err := f.service.Reconcile(context.Background(), tenantID, payment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, result.Status)
	require.Len(t, result.ExactMatches, 1)
	assert.Equal(t, "INV-001", result.ExactMatches[0].InvoiceNumber)

	f.invoices.AssertNotCalled(t, "FindOpenForTenant", mock.Anything, mock.Anything)
	f.settler.AssertNotCalled(t, "SettleExactMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileDuplicateSubmissionRejected(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	f := newFixture(t, store)
	tenantID := uuid.New()
	payment := makePayment(t, tenantID, 100)

	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment.ID).Return(payment, nil)
	f.invoices.On("FindOpenForTenant", mock.Anything, tenantID).Return([]*receivable.Invoice{}, nil)
	f.payments.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Reconcile(context.Background(), tenantID, payment.ID, "req-42")
	require.NoError(t, err)

	_, err = f.service.Reconcile(context.Background(), tenantID, payment.ID, "req-42")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)

	// A different key is a fresh submission
	payment2 := makePayment(t, tenantID, 100)
	f.payments.On("FindByIDForTenant", mock.Anything, tenantID, payment2.ID).Return(payment2, nil)
	_, err = f.service.Reconcile(context.Background(), tenantID, payment2.ID, "req-43")
	assert.NoError(t, err)
}
