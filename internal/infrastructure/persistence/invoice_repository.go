package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements receivable.InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates an invoice repository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Invoice, error) {
	var model models.InvoiceModel
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

// FindByNumber finds an invoice by its number within a tenant
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*receivable.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyFilter(query, filter, "invoice_number", "customer_name")
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]*receivable.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// FindOpenForTenant returns open invoices ordered by creation time.
// The matcher scans this slice in order, so the ordering is part of
// the contract.
func (r *GormInvoiceRepository) FindOpenForTenant(ctx context.Context, tenantID uuid.UUID) ([]*receivable.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(receivable.InvoiceStatusOpen)).
		Order("created_at ASC").
		Find(&invoiceModels).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*receivable.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// Save persists the invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *receivable.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock persists the invoice guarded by its version column.
// The caller increments the version before saving; the update only
// lands when the stored row still carries the previous version.
// Columns are listed explicitly so cleared fields (an emptied name,
// a nil match) land instead of being skipped as zero values.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *receivable.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)

	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(map[string]interface{}{
			"invoice_number":     model.InvoiceNumber,
			"customer_id":        model.CustomerID,
			"customer_name":      model.CustomerName,
			"amount":             model.Amount,
			"status":             model.Status,
			"due_date":           model.DueDate,
			"paid_at":            model.PaidAt,
			"matched_payment_id": model.MatchedPaymentID,
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

// DeleteForTenant removes an invoice within a tenant
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyFilterWithoutPagination(query, filter, "invoice_number", "customer_name")
	err := query.Count(&count).Error
	return count, err
}

// CountByStatus counts invoices in a given status
func (r *GormInvoiceRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status receivable.InvoiceStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(status)).
		Count(&count).Error
	return count, err
}

// SumOpenAmount totals the outstanding amount across open invoices
func (r *GormInvoiceRepository) SumOpenAmount(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(receivable.InvoiceStatusOpen)).
		Select("COALESCE(SUM(amount), 0) as total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ExistsByNumber checks whether an invoice number is already used
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		Count(&count).Error
	return count > 0, err
}

// GenerateInvoiceNumber produces the next number "INV-YYYYMMDD-NNNNN"
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("20060102"))

	var lastNumber string
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND invoice_number LIKE ?", tenantID, prefix+"%").
		Select("COALESCE(MAX(invoice_number), '')").
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

var _ receivable.InvoiceRepository = (*GormInvoiceRepository)(nil)
