package model

// Entry pairs a class label with the probability the model assigned to it.
type Entry struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// RankedResult is a list of entries sorted by probability, highest first.
// Entries with equal probability keep their original label order.
type RankedResult []Entry

// Top returns the highest-ranked entry, or the zero Entry when r is empty.
func (r RankedResult) Top() Entry {
	if len(r) == 0 {
		return Entry{}
	}
	return r[0]
}
