package model

import "time"

// Prediction is what an inference backend returns for one image.
type Prediction struct {
	Class  string       // class reported by the backend
	Ranked RankedResult // all scored labels, highest first
}

// Diagnosis is Leafcheck's output type: a prediction enriched with its
// knowledge-base record.
type Diagnosis struct {
	RequestID  string          `json:"request_id,omitempty"`
	Generation uint64          `json:"generation,omitempty"`
	Backend    string          `json:"backend,omitempty"`
	Image      string          `json:"image,omitempty"`
	Class      string          `json:"class"`
	Score      float64         `json:"score"`
	Knowledge  KnowledgeRecord `json:"knowledge,omitzero"`
	Ranked     RankedResult    `json:"ranked,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}
