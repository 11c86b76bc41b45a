package reconciliation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Match reasons attached to suggestions
const (
	ReasonSingle      = "single"
	ReasonCombination = "combination"

	MessageSingle      = "Similar single invoice amount"
	MessageCombination = "Potential multi-invoice combination"
)

// Candidate is an open invoice as seen by the matching engine
type Candidate struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// Suggestion is a scored set of candidate invoices whose combined
// amount approximates the payment. Suggestions are advisory; nothing
// is settled until a human confirms.
type Suggestion struct {
	Invoices   []Candidate     `json:"invoices"`
	Total      decimal.Decimal `json:"total"`
	Difference decimal.Decimal `json:"difference"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
	Message    string          `json:"message"`
}
