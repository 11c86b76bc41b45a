package reconciliation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Params are the matching engine tunables
type Params struct {
	// Epsilon is the exact-match threshold: amounts closer than this
	// are considered equal.
	Epsilon decimal.Decimal
	// TolerancePercent and ToleranceFloor bound the acceptable gap for
	// suggestions: tolerance = max(target * percent, floor).
	TolerancePercent decimal.Decimal
	ToleranceFloor   decimal.Decimal
	// MaxCombinationSize caps the invoices per suggested combination
	MaxCombinationSize int
	// MaxSuggestions caps the ranked suggestion list
	MaxSuggestions int
}

// DefaultParams returns the standard engine tunables
func DefaultParams() Params {
	return Params{
		Epsilon:            decimal.New(1, -2),
		TolerancePercent:   decimal.New(15, -2),
		ToleranceFloor:     decimal.NewFromInt(500),
		MaxCombinationSize: 3,
		MaxSuggestions:     5,
	}
}

// FindExactMatch scans candidates in input order and returns the first
// one whose amount is within epsilon of the target. Returns nil when
// nothing matches.
func FindExactMatch(target decimal.Decimal, candidates []Candidate, epsilon decimal.Decimal) *Candidate {
	for i := range candidates {
		if candidates[i].Amount.Sub(target).Abs().LessThan(epsilon) {
			return &candidates[i]
		}
	}
	return nil
}

// Suggest enumerates combinations of candidates, scores them against
// the target, deduplicates, ranks, and truncates. The enumeration is
// deterministic: subsets are produced index-ascending, smaller sizes
// first, so identical input always yields identical output.
func Suggest(target decimal.Decimal, candidates []Candidate, params Params) []Suggestion {
	maxSize := params.MaxCombinationSize
	if maxSize > len(candidates) {
		maxSize = len(candidates)
	}

	best := make(map[string]Suggestion)
	order := make([]string, 0)

	for size := 1; size <= maxSize; size++ {
		forEachCombination(len(candidates), size, func(indices []int) {
			subset := make([]Candidate, size)
			for i, idx := range indices {
				subset[i] = candidates[idx]
			}
			suggestion, ok := score(target, subset, params)
			if !ok {
				return
			}
			key := dedupKey(suggestion)
			existing, seen := best[key]
			if !seen {
				best[key] = suggestion
				order = append(order, key)
				return
			}
			if suggestion.Confidence > existing.Confidence {
				best[key] = suggestion
			}
		})
	}

	suggestions := make([]Suggestion, 0, len(order))
	for _, key := range order {
		suggestions = append(suggestions, best[key])
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		di := suggestions[i].Difference.Abs()
		dj := suggestions[j].Difference.Abs()
		if !di.Equal(dj) {
			return di.LessThan(dj)
		}
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if params.MaxSuggestions > 0 && len(suggestions) > params.MaxSuggestions {
		suggestions = suggestions[:params.MaxSuggestions]
	}
	return suggestions
}

// score evaluates one subset against the target. The second return is
// false when the gap exceeds the tolerance band.
func score(target decimal.Decimal, subset []Candidate, params Params) (Suggestion, bool) {
	one := decimal.NewFromInt(1)

	total := decimal.Zero
	for _, c := range subset {
		total = total.Add(c.Amount)
	}
	total = total.Round(2)
	difference := target.Sub(total).Round(2)

	tolerance := decimal.Max(target.Mul(params.TolerancePercent), params.ToleranceFloor)
	if difference.Abs().GreaterThan(tolerance) {
		return Suggestion{}, false
	}

	relativeDiff := decimal.Min(difference.Abs().Div(decimal.Max(target, one)), one)
	confidence := one.Sub(relativeDiff)

	reason := ReasonSingle
	message := MessageSingle
	if len(subset) > 1 {
		confidence = confidence.Add(decimal.New(1, -1))
		reason = ReasonCombination
		message = MessageCombination
	}
	confidence = decimal.Min(confidence, one).Round(2)
	pct, _ := confidence.Mul(decimal.NewFromInt(100)).Float64()

	return Suggestion{
		Invoices:   subset,
		Total:      total,
		Difference: difference,
		Confidence: pct,
		Reason:     reason,
		Message:    message,
	}, true
}

// dedupKey identifies a suggestion by its invoice set and rounded total
func dedupKey(s Suggestion) string {
	ids := make([]string, len(s.Invoices))
	for i, inv := range s.Invoices {
		ids[i] = inv.ID.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, ",") + "|" + s.Total.StringFixed(2)
}

// forEachCombination invokes fn with every k-sized index combination
// of [0, n) in lexicographic order. The slice passed to fn is reused
// between calls.
func forEachCombination(n, k int, fn func(indices []int)) {
	if k <= 0 || k > n {
		return
	}
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	for {
		fn(indices)
		// Advance the rightmost index that can still move
		i := k - 1
		for i >= 0 && indices[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}
