package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CNY Currency = "CNY"
	JPY Currency = "JPY"
)

// DefaultCurrency is used when no currency is specified
const DefaultCurrency = USD

// Money is an immutable monetary amount with a currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a Money value from a decimal amount
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: amount, currency: currency}
}

// NewMoneyFromFloat creates a Money value from a float64
func NewMoneyFromFloat(amount float64, currency Currency) Money {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromInt creates a Money value from an int64
func NewMoneyFromInt(amount int64, currency Currency) Money {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// NewMoneyFromString parses a Money value from a string amount
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency), nil
}

// ZeroMoney returns a zero amount in the given currency
func ZeroMoney(currency Currency) Money {
	return NewMoney(decimal.Zero, currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) checkCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return nil
}

// Add returns m + other; currencies must match
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency), nil
}

// Subtract returns m - other; currencies must match
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency), nil
}

// Multiply returns m * factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(factor), m.currency)
}

// Negate returns -m
func (m Money) Negate() Money {
	return NewMoney(m.amount.Neg(), m.currency)
}

// Abs returns the absolute value of m
func (m Money) Abs() Money {
	return NewMoney(m.amount.Abs(), m.currency)
}

// Round rounds to the given number of decimal places
func (m Money) Round(places int32) Money {
	return NewMoney(m.amount.Round(places), m.currency)
}

// Equals reports whether both amount and currency match
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan reports m < other; currencies must match
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.checkCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// GreaterThan reports m > other; currencies must match
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.checkCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// String returns "AMOUNT CURRENCY" with two decimal places
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.amount.String(),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer, persisting the amount only
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner; the currency defaults since only the
// amount is stored.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		*m = ZeroMoney(DefaultCurrency)
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("failed to scan money amount: %w", err)
	}
	*m = NewMoney(d, DefaultCurrency)
	return nil
}

// Allocate splits the amount into n parts that sum exactly to the
// original, distributing remainder cents to the leading parts.
func (m Money) Allocate(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("allocation parts must be positive, got %d", n)
	}
	parts := make([]Money, n)
	base := m.amount.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	remainder := m.amount.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	cent := decimal.New(1, -2)
	for i := 0; i < n; i++ {
		amount := base
		if remainder.GreaterThanOrEqual(cent) {
			amount = amount.Add(cent)
			remainder = remainder.Sub(cent)
		}
		parts[i] = NewMoney(amount, m.currency)
	}
	return parts, nil
}
