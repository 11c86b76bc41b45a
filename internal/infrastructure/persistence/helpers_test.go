package persistence

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arledger/backend/internal/domain/shared/valueobject"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func moneyFromString(t *testing.T, s string) valueobject.Money {
	t.Helper()
	return valueobject.NewMoney(decimalFromString(t, s), valueobject.USD)
}
