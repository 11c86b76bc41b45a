package reconciliation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/arledger/backend/internal/domain/shared/valueobject"
)

// NormalizeAmount coerces arbitrary input into a finite decimal amount.
// Numeric values, numeric text, and json.Number all convert; nil,
// absent, and unparseable input normalize to zero. It never panics and
// never returns an error, so callers treat zero as "no usable amount".
func NormalizeAmount(value interface{}) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case valueobject.Money:
		return v.Amount()
	case *valueobject.Money:
		if v == nil {
			return decimal.Zero
		}
		return v.Amount()
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int8:
		return decimal.NewFromInt(int64(v))
	case int16:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint8:
		return decimal.NewFromInt(int64(v))
	case uint16:
		return decimal.NewFromInt(int64(v))
	case uint32:
		return decimal.NewFromInt(int64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	case json.Number:
		return fromString(v.String())
	case string:
		return fromString(v)
	case fmt.Stringer:
		return fromString(v.String())
	default:
		return decimal.Zero
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// Tolerate thousands separators in imported bank data
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
