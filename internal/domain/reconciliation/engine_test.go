package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(number string, amount float64) Candidate {
	return Candidate{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Amount:        decimal.NewFromFloat(amount),
	}
}

func TestFindExactMatch(t *testing.T) {
	epsilon := decimal.New(1, -2)

	t.Run("matches equal amount", func(t *testing.T) {
		candidates := []Candidate{
			candidate("INV-001", 5000),
			candidate("INV-002", 2000),
			candidate("INV-003", 3200),
		}
		match := FindExactMatch(decimal.NewFromInt(5000), candidates, epsilon)
		require.NotNil(t, match)
		assert.Equal(t, "INV-001", match.InvoiceNumber)
	})

	t.Run("first in input order wins on ties", func(t *testing.T) {
		candidates := []Candidate{
			candidate("INV-001", 100),
			candidate("INV-002", 100),
		}
		match := FindExactMatch(decimal.NewFromInt(100), candidates, epsilon)
		require.NotNil(t, match)
		assert.Equal(t, "INV-001", match.InvoiceNumber)
	})

	t.Run("sub-epsilon difference matches", func(t *testing.T) {
		candidates := []Candidate{candidate("INV-001", 100.005)}
		match := FindExactMatch(decimal.NewFromInt(100), candidates, epsilon)
		assert.NotNil(t, match)
	})

	t.Run("exact epsilon difference does not match", func(t *testing.T) {
		candidates := []Candidate{candidate("INV-001", 100.01)}
		match := FindExactMatch(decimal.NewFromInt(100), candidates, epsilon)
		assert.Nil(t, match)
	})

	t.Run("no candidates", func(t *testing.T) {
		match := FindExactMatch(decimal.NewFromInt(100), nil, epsilon)
		assert.Nil(t, match)
	})
}

func TestSuggestCombination(t *testing.T) {
	params := DefaultParams()

	// 2000 + 3200 = 5200 against a 5300 payment: inside the 15% band,
	// every other subset falls outside it.
	candidates := []Candidate{
		candidate("INV-A", 2000),
		candidate("INV-B", 3200),
		candidate("INV-C", 10000),
	}
	suggestions := Suggest(decimal.NewFromInt(5300), candidates, params)

	require.Len(t, suggestions, 1)
	top := suggestions[0]
	assert.Equal(t, "5200", top.Total.String())
	assert.Equal(t, "100", top.Difference.String())
	assert.Equal(t, ReasonCombination, top.Reason)
	assert.Equal(t, MessageCombination, top.Message)
	assert.Equal(t, float64(100), top.Confidence)
	require.Len(t, top.Invoices, 2)
	assert.Equal(t, "INV-A", top.Invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-B", top.Invoices[1].InvoiceNumber)
}

func TestSuggestNothingInTolerance(t *testing.T) {
	params := DefaultParams()

	// Tolerance for a 100 payment is max(15, 500) = 500; every subset
	// of 10000-amount invoices misses by far more.
	candidates := []Candidate{
		candidate("INV-A", 10000),
		candidate("INV-B", 10000),
		candidate("INV-C", 10000),
	}
	suggestions := Suggest(decimal.NewFromInt(100), candidates, params)
	assert.Empty(t, suggestions)
}

func TestSuggestSingle(t *testing.T) {
	params := DefaultParams()

	candidates := []Candidate{candidate("INV-A", 960)}
	suggestions := Suggest(decimal.NewFromInt(1000), candidates, params)

	require.Len(t, suggestions, 1)
	s := suggestions[0]
	assert.Equal(t, ReasonSingle, s.Reason)
	assert.Equal(t, MessageSingle, s.Message)
	assert.Equal(t, "40", s.Difference.String())
	// 1 - 40/1000 = 0.96
	assert.Equal(t, float64(96), s.Confidence)
}

func TestSuggestRankingAndTruncation(t *testing.T) {
	params := DefaultParams()

	// Many invoices near the target produce more than MaxSuggestions
	// tolerated subsets.
	candidates := []Candidate{
		candidate("INV-A", 1000),
		candidate("INV-B", 990),
		candidate("INV-C", 950),
		candidate("INV-D", 900),
		candidate("INV-E", 500),
		candidate("INV-F", 490),
	}
	target := decimal.NewFromInt(1000)
	suggestions := Suggest(target, candidates, params)

	require.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), params.MaxSuggestions)

	// Ranked by absolute difference ascending
	for i := 1; i < len(suggestions); i++ {
		prev := suggestions[i-1].Difference.Abs()
		cur := suggestions[i].Difference.Abs()
		assert.True(t, prev.LessThanOrEqual(cur),
			"suggestion %d (%s) ranked after %d (%s)", i, cur, i-1, prev)
	}

	// Best suggestion is the exact-amount single invoice
	assert.Equal(t, "0", suggestions[0].Difference.String())
	assert.Equal(t, float64(100), suggestions[0].Confidence)
}

func TestSuggestDeterministic(t *testing.T) {
	params := DefaultParams()
	candidates := []Candidate{
		candidate("INV-A", 300),
		candidate("INV-B", 700),
		candidate("INV-C", 1000),
		candidate("INV-D", 650),
	}
	target := decimal.NewFromInt(1000)

	first := Suggest(target, candidates, params)
	for i := 0; i < 5; i++ {
		again := Suggest(target, candidates, params)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Total.String(), again[j].Total.String())
			assert.Equal(t, first[j].Confidence, again[j].Confidence)
			assert.Equal(t, len(first[j].Invoices), len(again[j].Invoices))
		}
	}
}

func TestSuggestDeduplicates(t *testing.T) {
	params := DefaultParams()

	// Two invoices with identical amounts produce subsets with the same
	// total but different identities; those stay distinct. The same
	// subset is never emitted twice.
	candidates := []Candidate{
		candidate("INV-A", 500),
		candidate("INV-B", 500),
	}
	suggestions := Suggest(decimal.NewFromInt(500), candidates, params)

	seen := make(map[string]bool)
	for _, s := range suggestions {
		key := dedupKey(s)
		assert.False(t, seen[key], "duplicate suggestion for key %s", key)
		seen[key] = true
	}
}

func TestSuggestRespectsMaxCombinationSize(t *testing.T) {
	params := DefaultParams()
	params.MaxCombinationSize = 2

	candidates := []Candidate{
		candidate("INV-A", 300),
		candidate("INV-B", 300),
		candidate("INV-C", 400),
	}
	suggestions := Suggest(decimal.NewFromInt(1000), candidates, params)
	for _, s := range suggestions {
		assert.LessOrEqual(t, len(s.Invoices), 2)
	}
}

func TestForEachCombination(t *testing.T) {
	var got [][]int
	forEachCombination(4, 2, func(indices []int) {
		dup := make([]int, len(indices))
		copy(dup, indices)
		got = append(got, dup)
	})
	expected := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	assert.Equal(t, expected, got)

	forEachCombination(2, 3, func([]int) {
		t.Fatal("no combinations expected when k > n")
	})
	forEachCombination(3, 0, func([]int) {
		t.Fatal("no combinations expected when k = 0")
	})
}
