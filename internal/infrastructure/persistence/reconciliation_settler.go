package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/persistence/models"
)

// GormReconciliationSettler commits an exact match atomically: the
// invoice and the payment flip together or not at all. Both updates
// are guarded by version columns, and the invoice update re-verifies
// the row is still open so a lost race rolls the whole settlement back.
type GormReconciliationSettler struct {
	db *gorm.DB
}

// NewGormReconciliationSettler creates a settler
func NewGormReconciliationSettler(db *gorm.DB) *GormReconciliationSettler {
	return &GormReconciliationSettler{db: db}
}

// SettleExactMatch persists an already-mutated invoice/payment pair in
// one transaction. Callers mark the aggregates paid/matched and bump
// their versions before calling.
func (s *GormReconciliationSettler) SettleExactMatch(ctx context.Context, invoice *receivable.Invoice, payment *receivable.Payment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoiceModel models.InvoiceModel
		invoiceModel.FromDomain(invoice)

		result := tx.Model(&invoiceModel).
			Where("id = ? AND tenant_id = ? AND status = ? AND version = ?",
				invoice.ID, invoice.TenantID, string(receivable.InvoiceStatusOpen), invoice.Version-1).
			Updates(map[string]interface{}{
				"status":             invoiceModel.Status,
				"paid_at":            invoiceModel.PaidAt,
				"matched_payment_id": invoiceModel.MatchedPaymentID,
				"version":            invoiceModel.Version,
				"updated_at":         invoiceModel.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// The invoice was settled, disputed, or rewritten since we
			// read it; abort so the payment stays untouched.
			return shared.ErrConcurrencyConflict
		}

		var paymentModel models.PaymentModel
		paymentModel.FromDomain(payment)

		result = tx.Model(&paymentModel).
			Where("id = ? AND tenant_id = ? AND version = ?",
				payment.ID, payment.TenantID, payment.Version-1).
			Updates(map[string]interface{}{
				"status":             paymentModel.Status,
				"matched_invoice_id": paymentModel.MatchedInvoiceID,
				"version":            paymentModel.Version,
				"updated_at":         paymentModel.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}
