package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arledger/backend/internal/domain/receivable"
	"github.com/arledger/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName     string          `gorm:"type:varchar(255)"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status           string          `gorm:"type:varchar(32);not null;index"`
	DueDate          time.Time       `gorm:"not null"`
	PaidAt           *time.Time
	MatchedPaymentID *uuid.UUID `gorm:"type:uuid"`
}

// TableName implements schema.Tabler
func (InvoiceModel) TableName() string {
	return "invoices"
}

// FromDomain fills the model from the aggregate
func (m *InvoiceModel) FromDomain(invoice *receivable.Invoice) {
	m.FromTenantAggregateRoot(invoice.TenantAggregateRoot)
	m.InvoiceNumber = invoice.InvoiceNumber
	m.CustomerID = invoice.CustomerID
	m.CustomerName = invoice.CustomerName
	m.Amount = invoice.Amount.Amount()
	m.Status = string(invoice.Status)
	m.DueDate = invoice.DueDate
	m.PaidAt = invoice.PaidAt
	m.MatchedPaymentID = invoice.MatchedPaymentID
}

// ToDomain reconstructs the aggregate from the model
func (m *InvoiceModel) ToDomain() *receivable.Invoice {
	return &receivable.Invoice{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		InvoiceNumber:       m.InvoiceNumber,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		Amount:              valueobject.NewMoney(m.Amount, valueobject.DefaultCurrency),
		Status:              receivable.InvoiceStatus(m.Status),
		DueDate:             m.DueDate,
		PaidAt:              m.PaidAt,
		MatchedPaymentID:    m.MatchedPaymentID,
	}
}

// PaymentModel is the persistence model for payments
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_payments_tenant_number,priority:2"`
	CustomerID       *uuid.UUID      `gorm:"type:uuid;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentDate      time.Time       `gorm:"not null"`
	Reference        string          `gorm:"type:varchar(255)"`
	Status           string          `gorm:"type:varchar(32);not null;index"`
	MatchedInvoiceID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName implements schema.Tabler
func (PaymentModel) TableName() string {
	return "payments"
}

// FromDomain fills the model from the aggregate
func (m *PaymentModel) FromDomain(payment *receivable.Payment) {
	m.FromTenantAggregateRoot(payment.TenantAggregateRoot)
	m.PaymentNumber = payment.PaymentNumber
	m.CustomerID = payment.CustomerID
	m.Amount = payment.Amount.Amount()
	m.PaymentDate = payment.PaymentDate
	m.Reference = payment.Reference
	m.Status = string(payment.Status)
	m.MatchedInvoiceID = payment.MatchedInvoiceID
}

// ToDomain reconstructs the aggregate from the model
func (m *PaymentModel) ToDomain() *receivable.Payment {
	return &receivable.Payment{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		PaymentNumber:       m.PaymentNumber,
		CustomerID:          m.CustomerID,
		Amount:              valueobject.NewMoney(m.Amount, valueobject.DefaultCurrency),
		PaymentDate:         m.PaymentDate,
		Reference:           m.Reference,
		Status:              receivable.PaymentStatus(m.Status),
		MatchedInvoiceID:    m.MatchedInvoiceID,
	}
}

// DisputeModel is the persistence model for disputes
type DisputeModel struct {
	TenantAggregateModel
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Reason     string    `gorm:"type:text;not null"`
	Status     string    `gorm:"type:varchar(32);not null;index"`
	Resolution string    `gorm:"type:varchar(32)"`
	ResolvedAt *time.Time
}

// TableName implements schema.Tabler
func (DisputeModel) TableName() string {
	return "disputes"
}

// FromDomain fills the model from the aggregate
func (m *DisputeModel) FromDomain(dispute *receivable.Dispute) {
	m.FromTenantAggregateRoot(dispute.TenantAggregateRoot)
	m.InvoiceID = dispute.InvoiceID
	m.Reason = dispute.Reason
	m.Status = string(dispute.Status)
	m.Resolution = string(dispute.Resolution)
	m.ResolvedAt = dispute.ResolvedAt
}

// ToDomain reconstructs the aggregate from the model
func (m *DisputeModel) ToDomain() *receivable.Dispute {
	return &receivable.Dispute{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		InvoiceID:           m.InvoiceID,
		Reason:              m.Reason,
		Status:              receivable.DisputeStatus(m.Status),
		Resolution:          receivable.DisputeResolution(m.Resolution),
		ResolvedAt:          m.ResolvedAt,
	}
}
