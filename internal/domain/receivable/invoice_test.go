package receivable

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	invoice, err := NewInvoice(
		uuid.New(), "INV-20260101-00001", uuid.New(), "Acme Corp",
		valueobject.NewMoneyFromInt(5000, valueobject.USD), time.Now().AddDate(0, 1, 0),
	)
	require.NoError(t, err)
	return invoice
}

func TestNewInvoice(t *testing.T) {
	tenantID := uuid.New()
	customerID := uuid.New()
	due := time.Now().AddDate(0, 1, 0)

	t.Run("valid invoice starts open", func(t *testing.T) {
		invoice, err := NewInvoice(tenantID, "INV-001", customerID, "Acme Corp", valueobject.NewMoneyFromInt(100, valueobject.USD), due)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusOpen, invoice.Status)
		assert.Equal(t, tenantID, invoice.TenantID)
		assert.Equal(t, 1, invoice.Version)
		assert.True(t, invoice.IsOpen())
		assert.Nil(t, invoice.PaidAt)
		assert.Nil(t, invoice.MatchedPaymentID)
	})

	t.Run("rejects blank invoice number", func(t *testing.T) {
		_, err := NewInvoice(tenantID, "   ", customerID, "Acme", valueobject.NewMoneyFromInt(100, valueobject.USD), due)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewInvoice(tenantID, "INV-001", customerID, "Acme", valueobject.ZeroMoney(valueobject.USD), due)
		assert.Error(t, err)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewInvoice(tenantID, "INV-001", customerID, "Acme", valueobject.NewMoneyFromInt(-5, valueobject.USD), due)
		assert.Error(t, err)
	})

	t.Run("rejects nil customer", func(t *testing.T) {
		_, err := NewInvoice(tenantID, "INV-001", uuid.Nil, "Acme", valueobject.NewMoneyFromInt(100, valueobject.USD), due)
		assert.Error(t, err)
	})
}

func TestInvoiceMarkPaid(t *testing.T) {
	t.Run("open invoice settles", func(t *testing.T) {
		invoice := newTestInvoice(t)
		paymentID := uuid.New()

		require.NoError(t, invoice.MarkPaid(paymentID))
		assert.Equal(t, InvoiceStatusPaid, invoice.Status)
		require.NotNil(t, invoice.MatchedPaymentID)
		assert.Equal(t, paymentID, *invoice.MatchedPaymentID)
		assert.NotNil(t, invoice.PaidAt)
	})

	t.Run("paid invoice cannot settle again", func(t *testing.T) {
		invoice := newTestInvoice(t)
		require.NoError(t, invoice.MarkPaid(uuid.New()))

		err := invoice.MarkPaid(uuid.New())
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("disputed invoice cannot settle", func(t *testing.T) {
		invoice := newTestInvoice(t)
		require.NoError(t, invoice.MarkDisputed())
		assert.Error(t, invoice.MarkPaid(uuid.New()))
	})
}

func TestInvoiceDisputeTransitions(t *testing.T) {
	invoice := newTestInvoice(t)

	require.NoError(t, invoice.MarkDisputed())
	assert.Equal(t, InvoiceStatusDisputed, invoice.Status)
	assert.False(t, invoice.IsOpen())

	require.NoError(t, invoice.Reopen())
	assert.Equal(t, InvoiceStatusOpen, invoice.Status)

	assert.Error(t, invoice.Reopen(), "open invoice cannot be reopened")
}

func TestInvoiceWriteOff(t *testing.T) {
	t.Run("open invoice can be written off", func(t *testing.T) {
		invoice := newTestInvoice(t)
		require.NoError(t, invoice.WriteOff())
		assert.Equal(t, InvoiceStatusWrittenOff, invoice.Status)
	})

	t.Run("disputed invoice can be written off", func(t *testing.T) {
		invoice := newTestInvoice(t)
		require.NoError(t, invoice.MarkDisputed())
		require.NoError(t, invoice.WriteOff())
	})

	t.Run("paid invoice cannot be written off", func(t *testing.T) {
		invoice := newTestInvoice(t)
		require.NoError(t, invoice.MarkPaid(uuid.New()))
		assert.Error(t, invoice.WriteOff())
	})
}

func TestInvoiceUpdateDetails(t *testing.T) {
	invoice := newTestInvoice(t)
	due := time.Now().AddDate(0, 2, 0)

	require.NoError(t, invoice.UpdateDetails("Acme Holdings", valueobject.NewMoneyFromInt(7500, valueobject.USD), due))
	assert.Equal(t, "Acme Holdings", invoice.CustomerName)
	assert.Equal(t, "7500", invoice.Amount.Amount().String())

	assert.Error(t, invoice.UpdateDetails("Acme", valueobject.ZeroMoney(valueobject.USD), due))

	require.NoError(t, invoice.MarkPaid(uuid.New()))
	assert.Error(t, invoice.UpdateDetails("Acme", valueobject.NewMoneyFromInt(1, valueobject.USD), due))
}

func TestInvoiceIsOverdue(t *testing.T) {
	invoice := newTestInvoice(t)
	invoice.DueDate = time.Now().AddDate(0, 0, -1)
	assert.True(t, invoice.IsOverdue(time.Now()))

	require.NoError(t, invoice.MarkPaid(uuid.New()))
	assert.False(t, invoice.IsOverdue(time.Now()), "settled invoices are never overdue")
}
