package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/persistence/models"
)

func paymentColumns() []string {
	return []string{
		"id", "tenant_id", "created_by", "version", "created_at", "updated_at",
		"payment_number", "customer_id", "amount", "payment_date", "reference",
		"status", "matched_invoice_id",
	}
}

func TestGormPaymentRepositoryFindByIDForTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	paymentID := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(paymentColumns()).AddRow(
			paymentID, tenantID, nil, 1, now, now,
			"PAY-20260101-00001", nil, "5300", now, "wire 8821",
			"UNMATCHED", nil,
		)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnRows(rows)

		payment, err := repo.FindByIDForTenant(ctx, tenantID, paymentID)
		require.NoError(t, err)
		assert.Equal(t, "PAY-20260101-00001", payment.PaymentNumber)
		assert.Equal(t, receivable.PaymentStatusUnmatched, payment.Status)
		assert.Equal(t, "5300", payment.Amount.Amount().String())
		assert.Nil(t, payment.CustomerID)
	})

	t.Run("not found maps to domain error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForTenant(ctx, tenantID, paymentID)
		assert.Equal(t, shared.ErrNotFound, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepositorySaveWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("stale version maps to concurrency conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewGormPaymentRepository(db)

		payment, err := receivable.NewPayment(uuid.New(), "PAY-001", nil,
			moneyFromString(t, "100"), time.Now(), "")
		require.NoError(t, err)
		require.NoError(t, payment.MarkNeedsReview())
		payment.IncrementVersion()

		mock.ExpectExec(`UPDATE "payments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(ctx, payment)
		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepositorySaveWithLockClearsMatchedInvoice(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	db := newSQLiteDB(t)
	repo := NewGormPaymentRepository(db)

	payment, err := receivable.NewPayment(tenantID, "PAY-001", nil,
		moneyFromString(t, "5300"), time.Now(), "wire")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, payment))

	// A stale partial settlement left a matched invoice on a payment
	// still awaiting review
	staleInvoiceID := uuid.New()
	require.NoError(t, db.Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":             "NEEDS_REVIEW",
			"matched_invoice_id": staleInvoiceID,
		}).Error)

	reviewed, err := repo.FindByIDForTenant(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, reviewed.MatchedInvoiceID)

	// Resetting must null the column out, not keep the stale value
	require.NoError(t, reviewed.ResetUnmatched())
	reviewed.IncrementVersion()
	require.NoError(t, repo.SaveWithLock(ctx, reviewed))

	stored, err := repo.FindByIDForTenant(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, receivable.PaymentStatusUnmatched, stored.Status)
	assert.Nil(t, stored.MatchedInvoiceID)
	assert.Equal(t, 2, stored.Version)
}

func TestGormPaymentRepositoryInterfaceCompliance(t *testing.T) {
	db, _ := newMockDB(t)
	var repo receivable.PaymentRepository = NewGormPaymentRepository(db)
	assert.NotNil(t, repo)
}
