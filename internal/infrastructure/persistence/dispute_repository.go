package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/persistence/models"
)

// GormDisputeRepository implements receivable.DisputeRepository
type GormDisputeRepository struct {
	db *gorm.DB
}

// NewGormDisputeRepository creates a dispute repository
func NewGormDisputeRepository(db *gorm.DB) *GormDisputeRepository {
	return &GormDisputeRepository{db: db}
}

// FindByIDForTenant finds a dispute by ID within a tenant
func (r *GormDisputeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Dispute, error) {
	var model models.DisputeModel
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

// FindAllForTenant lists disputes for a tenant with filtering
func (r *GormDisputeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*receivable.Dispute, error) {
	var disputeModels []models.DisputeModel
	query := r.db.WithContext(ctx).
		Model(&models.DisputeModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyFilter(query, filter, "reason")
	if err := query.Find(&disputeModels).Error; err != nil {
		return nil, err
	}

	disputes := make([]*receivable.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = disputeModels[i].ToDomain()
	}
	return disputes, nil
}

// FindOpenByInvoice returns the open dispute on an invoice, if any
func (r *GormDisputeRepository) FindOpenByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*receivable.Dispute, error) {
	var model models.DisputeModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ? AND status = ?",
			tenantID, invoiceID, string(receivable.DisputeStatusOpen)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the dispute
func (r *GormDisputeRepository) Save(ctx context.Context, dispute *receivable.Dispute) error {
	var model models.DisputeModel
	model.FromDomain(dispute)
	return r.db.WithContext(ctx).Save(&model).Error
}

// CountForTenant counts disputes matching the filter
func (r *GormDisputeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.DisputeModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyFilterWithoutPagination(query, filter, "reason")
	err := query.Count(&count).Error
	return count, err
}

var _ receivable.DisputeRepository = (*GormDisputeRepository)(nil)
