// ABOUTME: RAGAS-style metrics for faithfulness and source recall
// ABOUTME: Deterministic scoring by comparing the answer and its sources with ground truth

package ragas

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum score on both metrics for a PASS
const PassThreshold = 0.9

// Result is the scored outcome of one scenario
type Result struct {
	ScenarioID        string                 `json:"scenario_id"`
	ScenarioName      string                 `json:"scenario_name"`
	FaithfulnessScore float64                `json:"faithfulness_score"`
	SourceRecallScore float64                `json:"source_recall_score"`
	OverallScore      float64                `json:"overall_score"`
	Status            string                 `json:"status"`
	Details           map[string]interface{} `json:"details"`
}

// Passed reports whether the scenario met the threshold
func (r Result) Passed() bool {
	return r.Status == "PASS"
}

// MetricsCalculator computes scores for evaluation scenarios
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness scores whether the answer contains what it should and nothing it must not
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	missing := missingFrom(response, expectedInResponse)

	responseUpper := strings.ToUpper(response)
	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missing) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - response matches expected ground truth"
	case len(missing) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missing, forbiddenFound,
		)
	case len(missing) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missing)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateSourceRecall is the share of expected sources the answer cited
func (m *MetricsCalculator) CalculateSourceRecall(
	sourceLabels []string,
	expectedSources []string,
) (float64, string) {
	if len(expectedSources) == 0 {
		return 1.0, "No sources required"
	}

	missing := missingFrom(strings.Join(sourceLabels, "\n"), expectedSources)
	recall := float64(len(expectedSources)-len(missing)) / float64(len(expectedSources))

	if recall == 1.0 {
		return 1.0, "Perfect source recall - all expected sources cited"
	}
	return recall, fmt.Sprintf("Partial source recall (%.2f) - missing sources: %v", recall, missing)
}

// Evaluate scores the final answer of a scenario
func (m *MetricsCalculator) Evaluate(scenario Scenario, finalResponse string, sourceLabels []string) Result {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		finalResponse,
		scenario.GroundTruth.ExpectedInResponse,
		scenario.GroundTruth.ForbiddenInResponse,
	)
	recall, recallDetail := m.CalculateSourceRecall(sourceLabels, scenario.GroundTruth.ExpectedSources)

	status := "FAIL"
	if faithfulness >= PassThreshold && recall >= PassThreshold {
		status = "PASS"
	}

	return Result{
		ScenarioID:        scenario.ID,
		ScenarioName:      scenario.Name,
		FaithfulnessScore: faithfulness,
		SourceRecallScore: recall,
		OverallScore:      (faithfulness + recall) / 2.0,
		Status:            status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"final_response":      preview(finalResponse, 200),
			"sources":             sourceLabels,
		},
	}
}

// missingFrom returns the items not found case-insensitively in text
func missingFrom(text string, items []string) []string {
	upper := strings.ToUpper(text)
	missing := []string{}
	for _, item := range items {
		if !strings.Contains(upper, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}
	return missing
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
