// ABOUTME: Eval command runs question-answering scenarios and scores the answers
// ABOUTME: Reports faithfulness and source recall per scenario and exits non-zero on failures
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/coursemate/benchmarks/ragas"
)

var (
	evalOutput    string
	evalScenarios []string
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <scenarios.json>",
		Short: "Score answers against ground truth scenarios",
		Long: `Run evaluation scenarios against the indexed courses.

Each scenario is a list of questions asked in one session. The final
answer is scored for faithfulness (expected phrases present, forbidden
phrases absent) and source recall (expected sources cited). A scenario
passes when both scores reach 0.9.

Scenario file format:
  [{"id": "outline", "name": "Outline question",
    "questions": ["What lessons does the MCP course have?"],
    "ground_truth": {"expected_in_response": ["Lesson 1"],
                     "expected_sources": ["MCP"]}}]`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
		Example: `  coursemate eval scenarios.json
  coursemate eval --scenario outline --output results.json scenarios.json`,
	}

	cmd.Flags().StringVar(&evalOutput, "output", "", "Write JSON results to this file")
	cmd.Flags().StringSliceVar(&evalScenarios, "scenario", nil, "Only run these scenario ids")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	scenarios, err := ragas.LoadScenarios(args[0])
	if err != nil {
		return err
	}
	scenarios, err = ragas.Filter(scenarios, evalScenarios...)
	if err != nil {
		return err
	}

	a, err := openApp(appOptions{needChat: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	runner := ragas.NewRunner(a.system, a.logger.Named("eval"))
	results, err := runner.RunAll(cmd.Context(), scenarios)
	if err != nil {
		return err
	}
	summary := ragas.Summarize(results)

	if evalOutput != "" {
		if err := ragas.ExportResults(summary, evalOutput); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		if err := writeJSON(out, summary); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SCENARIO\tFAITHFULNESS\tSOURCES\tOVERALL\tSTATUS\n")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\n",
				truncate(r.ScenarioID, 30), r.FaithfulnessScore, r.SourceRecallScore, r.OverallScore, r.Status)
		}
		_ = w.Flush()
		if !quiet {
			fmt.Fprintf(out, "\nPassed: %d/%d\n", summary.Passed, summary.TotalTests)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d scenario(s) failed", summary.Failed, summary.TotalTests)
	}
	return nil
}
