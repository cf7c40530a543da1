package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed scenarios.json
var scenariosJSON []byte

// Scenario is a canned backend response with the diagnosis it should produce
// against the default knowledge base.
type Scenario struct {
	Name                string    `json:"name"`
	Class               *string   `json:"class"`
	Probabilities       []float64 `json:"probabilities"`
	ExpectedClass       string    `json:"expected_class"`
	ExpectedTop         string    `json:"expected_top"`
	ExpectedScore       float64   `json:"expected_score"`
	ExpectedDescription string    `json:"expected_description"`
}

// LoadScenarios parses the embedded scenarios.json and returns all entries.
func LoadScenarios() ([]Scenario, error) {
	var entries []Scenario
	if err := json.Unmarshal(scenariosJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse scenarios.json: %w", err)
	}
	return entries, nil
}
