package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the interface for aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common aggregate root functionality.
// Version backs optimistic locking in the persistence layer.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `json:"version" gorm:"not null;default:1"`
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the aggregate version
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// TenantAggregateRoot is an aggregate root scoped to a tenant
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// GetTenantID returns the tenant ID
func (t *TenantAggregateRoot) GetTenantID() uuid.UUID {
	return t.TenantID
}

// SetCreatedBy records the creating user
func (t *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	t.CreatedBy = &userID
}
