// Package report renders batch risk-analysis results for the audit
// command: a SARIF 2.1.0 report for tooling, or plain JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/docmorph/docmorph/internal/analyzer"
)

const (
	toolName       = "docmorph-audit"
	informationURI = "https://github.com/docmorph/docmorph"

	ruleRiskFinding  = "docmorph/risk-finding"
	ruleUnsafeModule = "docmorph/unsafe-module"
)

// WriteSarif renders the batch results as a SARIF report. Every warning
// from an unsafe module is reported at error level, findings on modules
// that still passed the gate at warning level.
func WriteSarif(w io.Writer, results map[string]analyzer.SecurityAnalysis) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, informationURI)
	run.AddRule(ruleRiskFinding).
		WithDescription("A low or medium severity risk pattern matched the module source.")
	run.AddRule(ruleUnsafeModule).
		WithDescription("The module failed the risk gate: a blocked pattern matched, the score crossed the threshold, or the module shape is invalid.")

	for _, name := range sortedFileNames(results) {
		analysis := results[name]

		ruleID := ruleRiskFinding
		level := "warning"
		if !analysis.Safe {
			ruleID = ruleUnsafeModule
			level = "error"
		}

		messages := analysis.Warnings
		if len(messages) == 0 && !analysis.Safe {
			messages = []string{fmt.Sprintf("module is unsafe with risk score %.1f", analysis.RiskScore)}
		}

		for _, message := range messages {
			run.CreateResultForRule(ruleID).
				WithLevel(level).
				WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s (risk score %.1f)", message, analysis.RiskScore))).
				WithLocations([]*sarif.Location{
					sarif.NewLocationWithPhysicalLocation(
						sarif.NewPhysicalLocation().
							WithArtifactLocation(sarif.NewSimpleArtifactLocation(name)),
					),
				})
		}
	}

	report.AddRun(run)
	return report.PrettyWrite(w)
}

// jsonReport is the shape of the audit JSON output.
type jsonReport struct {
	Summary analyzer.Summary                     `json:"summary"`
	Results map[string]analyzer.SecurityAnalysis `json:"results"`
}

// WriteJSON renders the batch results and their summary as indented JSON.
func WriteJSON(w io.Writer, results map[string]analyzer.SecurityAnalysis) error {
	payload := jsonReport{
		Summary: analyzer.Summarize(results),
		Results: results,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	return encoder.Encode(payload)
}

func sortedFileNames(results map[string]analyzer.SecurityAnalysis) []string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
