// ABOUTME: Evaluation scenarios for course question answering
// ABOUTME: A scenario is a short conversation plus ground truth for its final answer

package ragas

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Scenario is one evaluation case. Every question is asked in the same
// session; only the answer to the last one is scored.
type Scenario struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Questions   []string    `json:"questions"`
	GroundTruth GroundTruth `json:"ground_truth"`
}

// GroundTruth defines expected outcomes for the final answer
type GroundTruth struct {
	ExpectedInResponse  []string `json:"expected_in_response,omitempty"`
	ForbiddenInResponse []string `json:"forbidden_in_response,omitempty"`

	// Matched against the labels of the sources cited with the answer
	ExpectedSources []string `json:"expected_sources,omitempty"`
}

// Validate checks that a scenario can run
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("scenario id is required")
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("scenario %s has no questions", s.ID)
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("scenario %s question %d is empty", s.ID, i+1)
		}
	}
	return nil
}

// LoadScenarios reads a JSON array of scenarios
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios %s: %w", path, err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", path)
	}

	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate scenario id %s", s.ID)
		}
		seen[s.ID] = true
	}
	return scenarios, nil
}

// Filter returns the scenarios whose id is in ids; no ids returns all
func Filter(scenarios []Scenario, ids ...string) ([]Scenario, error) {
	if len(ids) == 0 {
		return scenarios, nil
	}
	byID := make(map[string]Scenario, len(scenarios))
	for _, s := range scenarios {
		byID[s.ID] = s
	}
	out := make([]Scenario, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown scenario id: %s", id)
		}
		out = append(out, s)
	}
	return out, nil
}
