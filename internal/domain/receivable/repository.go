package receivable

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arledger/backend/internal/domain/shared"
)

// InvoiceRepository is the persistence port for invoices
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Invoice, error)
	// FindOpenForTenant returns open invoices ordered by creation time,
	// the scan order the matcher depends on.
	FindOpenForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists the invoice guarded by its version column
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status InvoiceStatus) (int64, error)
	SumOpenAmount(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error)
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentRepository is the persistence port for payments
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (*Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Payment, error)
	Save(ctx context.Context, payment *Payment) error
	SaveWithLock(ctx context.Context, payment *Payment) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, paymentNumber string) (bool, error)
	GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// DisputeRepository is the persistence port for disputes
type DisputeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Dispute, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Dispute, error)
	FindOpenByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*Dispute, error)
	Save(ctx context.Context, dispute *Dispute) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
