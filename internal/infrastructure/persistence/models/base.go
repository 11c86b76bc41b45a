package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arledger/backend/internal/domain/shared"
)

// TenantAggregateModel carries the persistence columns shared by all
// tenant-scoped aggregates.
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	Version   int        `gorm:"not null;default:1"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// FromTenantAggregateRoot copies aggregate fields into the model
func (m *TenantAggregateModel) FromTenantAggregateRoot(root shared.TenantAggregateRoot) {
	m.ID = root.ID
	m.TenantID = root.TenantID
	m.CreatedBy = root.CreatedBy
	m.Version = root.Version
	m.CreatedAt = root.CreatedAt
	m.UpdatedAt = root.UpdatedAt
}

// ToTenantAggregateRoot reconstructs the embedded aggregate fields
func (m *TenantAggregateModel) ToTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		TenantID:  m.TenantID,
		CreatedBy: m.CreatedBy,
	}
}
