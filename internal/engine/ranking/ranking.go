package ranking

import (
	"slices"

	"github.com/crimson-sun/leafcheck/internal/model"
)

// Rank pairs each label with the probability at the same index and returns
// the pairs sorted highest first. A label with no matching probability gets
// 0, so a short or nil vector degrades to zero-confidence entries instead of
// an error. Probabilities beyond len(labels) are ignored.
func Rank(probabilities []float64, labels []string) model.RankedResult {
	entries := make(model.RankedResult, len(labels))
	for i, label := range labels {
		var p float64
		if i < len(probabilities) {
			p = probabilities[i]
		}
		entries[i] = model.Entry{Label: label, Probability: p}
	}
	sortDesc(entries)
	return entries
}

// TopK returns the k highest-probability entries, highest first. The input
// is not modified. When k <= 0 or k >= len(entries) all entries are returned.
func TopK(entries []model.Entry, k int) model.RankedResult {
	out := make(model.RankedResult, len(entries))
	copy(out, entries)
	sortDesc(out)
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// sortDesc orders entries by probability, highest first, keeping the
// original order for ties.
func sortDesc(entries model.RankedResult) {
	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		switch {
		case a.Probability > b.Probability:
			return -1
		case a.Probability < b.Probability:
			return 1
		default:
			return 0
		}
	})
}
