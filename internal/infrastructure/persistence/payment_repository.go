package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements receivable.PaymentRepository
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a payment repository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a payment by its number within a tenant
func (r *GormPaymentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (*receivable.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_number = ?", tenantID, paymentNumber).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists payments for a tenant with filtering
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*receivable.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyFilter(query, filter, "payment_number", "reference")
	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*receivable.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// Save persists the payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *receivable.Payment) error {
	var model models.PaymentModel
	model.FromDomain(payment)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock persists the payment guarded by its version column.
// Columns are listed explicitly so cleared fields land: a reset
// payment must null out matched_invoice_id, which a struct update
// would skip as a zero value.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *receivable.Payment) error {
	var model models.PaymentModel
	model.FromDomain(payment)

	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(map[string]interface{}{
			"payment_number":     model.PaymentNumber,
			"customer_id":        model.CustomerID,
			"amount":             model.Amount,
			"payment_date":       model.PaymentDate,
			"reference":          model.Reference,
			"status":             model.Status,
			"matched_invoice_id": model.MatchedInvoiceID,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteForTenant removes a payment within a tenant
func (r *GormPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.PaymentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts payments matching the filter
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyFilterWithoutPagination(query, filter, "payment_number", "reference")
	err := query.Count(&count).Error
	return count, err
}

// ExistsByNumber checks whether a payment number is already used
func (r *GormPaymentRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND payment_number = ?", tenantID, paymentNumber).
		Count(&count).Error
	return count > 0, err
}

// GeneratePaymentNumber produces the next number "PAY-YYYYMMDD-NNNNN"
func (r *GormPaymentRepository) GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("PAY-%s-", time.Now().Format("20060102"))

	var lastNumber string
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND payment_number LIKE ?", tenantID, prefix+"%").
		Select("COALESCE(MAX(payment_number), '')").
		Scan(&lastNumber).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if lastNumber != "" {
		var parsed int
		if _, err := fmt.Sscanf(lastNumber, prefix+"%05d", &parsed); err == nil {
			seq = parsed + 1
		}
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

var _ receivable.PaymentRepository = (*GormPaymentRepository)(nil)
