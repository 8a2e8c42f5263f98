// ABOUTME: Runner for evaluation scenarios - asks each conversation and scores the last answer
// ABOUTME: Each scenario gets its own session so history never leaks between scenarios

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/harper/coursemate/internal/rag"
)

// Asker answers a question within a session
type Asker interface {
	Query(ctx context.Context, text, sessionID string) (*rag.QueryResult, error)
}

// Runner executes evaluation scenarios
type Runner struct {
	asker   Asker
	metrics *MetricsCalculator
	logger  *zap.Logger
}

// Summary is the exported report of a run
type Summary struct {
	Timestamp  string   `json:"timestamp"`
	TotalTests int      `json:"total_tests"`
	Passed     int      `json:"passed"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// NewRunner creates a runner over asker
func NewRunner(asker Asker, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{asker: asker, metrics: NewMetricsCalculator(), logger: logger}
}

// RunScenario asks every question of the scenario in one session and scores the final answer
func (r *Runner) RunScenario(ctx context.Context, scenario Scenario) (Result, error) {
	if err := scenario.Validate(); err != nil {
		return Result{}, err
	}

	var sessionID string
	var last *rag.QueryResult
	for i, question := range scenario.Questions {
		started := time.Now()
		res, err := r.asker.Query(ctx, question, sessionID)
		if err != nil {
			return Result{}, fmt.Errorf("question %d failed: %w", i+1, err)
		}
		sessionID = res.SessionID
		last = res

		r.logger.Debug("scenario turn",
			zap.String("scenario", scenario.ID),
			zap.Int("turn", i+1),
			zap.Int("sources", len(res.Sources)),
			zap.Duration("elapsed", time.Since(started)))
	}

	labels := make([]string, 0, len(last.Sources))
	for _, s := range last.Sources {
		labels = append(labels, s.Label)
	}

	result := r.metrics.Evaluate(scenario, last.Answer, labels)
	r.logger.Info("scenario scored",
		zap.String("scenario", scenario.ID),
		zap.String("status", result.Status),
		zap.Float64("overall", result.OverallScore))
	return result, nil
}

// RunAll runs scenarios in order; a failing scenario stops the run
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := r.RunScenario(ctx, scenario)
		if err != nil {
			return results, fmt.Errorf("scenario %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Summarize counts passes and failures
func Summarize(results []Result) Summary {
	summary := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Passed() {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// ExportResults writes the summary as JSON to outputPath
func ExportResults(summary Summary, outputPath string) error {
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
