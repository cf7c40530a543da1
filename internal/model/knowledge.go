package model

// KnowledgeRecord is the human-readable guidance attached to a class label.
type KnowledgeRecord struct {
	Description    string `json:"description" yaml:"description"`
	Recommendation string `json:"recommendation" yaml:"recommendation"`
}
