package leafcheck

import "time"

// Entry is one class label with its probability.
type Entry struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Diagnosis is the result of classifying one image.
type Diagnosis struct {
	RequestID      string    `json:"request_id"`
	Backend        string    `json:"backend"`
	Image          string    `json:"image,omitempty"`
	Class          string    `json:"class"`
	Score          float64   `json:"score"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation"`
	Ranked         []Entry   `json:"ranked"`
	Timestamp      time.Time `json:"timestamp"`
}
