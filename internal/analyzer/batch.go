package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

// AnalyzeDir runs Analyze over every file with an accepted module
// extension directly inside dir (non-recursive) and returns the results
// keyed by file name. A per-file read failure yields a synthetic
// worst-case analysis for that file instead of aborting the batch; a
// directory-level read failure aborts the whole call.
func AnalyzeDir(dir string) (map[string]SecurityAnalysis, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sharederrors.NewMissingResource(dir, err)
	}

	results := make(map[string]SecurityAnalysis)
	for _, entry := range entries {
		if entry.IsDir() || !isModuleFile(entry.Name()) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			results[entry.Name()] = unreadableAnalysis(err)
			continue
		}
		results[entry.Name()] = Analyze(string(data))
	}

	return results, nil
}

// unreadableAnalysis is the worst-case verdict recorded for a file the
// batch could not read.
func unreadableAnalysis(err error) SecurityAnalysis {
	return SecurityAnalysis{
		Safe:            false,
		RiskScore:       10,
		Warnings:        []string{fmt.Sprintf("file could not be read: %v", err)},
		BlockedPatterns: []string{},
		StructureValid:  false,
	}
}

func isModuleFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range ModuleExtensions() {
		if ext == accepted {
			return true
		}
	}
	return false
}

// Summary aggregates a batch of analyses into the statistics reported by
// audit mode.
type Summary struct {
	Total            int     `json:"total"`
	Safe             int     `json:"safe"`
	Unsafe           int     `json:"unsafe"`
	AverageRiskScore float64 `json:"average_risk_score"`
	HighestRiskFile  string  `json:"highest_risk_file"`
	HighestRiskScore float64 `json:"highest_risk_score"`
}

// Summarize computes counts, the mean risk score (rounded to one
// decimal), and the single highest-risk file. Files are visited in
// sorted name order so ties deterministically keep the first
// encountered.
func Summarize(results map[string]SecurityAnalysis) Summary {
	summary := Summary{Total: len(results)}
	if summary.Total == 0 {
		return summary
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var total float64
	for _, name := range names {
		analysis := results[name]
		total += analysis.RiskScore
		if analysis.Safe {
			summary.Safe++
		} else {
			summary.Unsafe++
		}
		if analysis.RiskScore > summary.HighestRiskScore || summary.HighestRiskFile == "" {
			summary.HighestRiskFile = name
			summary.HighestRiskScore = analysis.RiskScore
		}
	}

	summary.AverageRiskScore = roundScore(total / float64(summary.Total))
	return summary
}
