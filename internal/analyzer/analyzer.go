// Package analyzer implements the pre-execution risk gate for transform
// modules: a lexical scan of module source text against a fixed pattern
// catalog, producing a 0-10 risk score and a pass/fail verdict. It is a
// best-effort advisory filter, not a sandbox.
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
)

// unsafeThreshold is the score at or above which a module fails the gate
// even without a high/critical match.
const unsafeThreshold = 7.0

// structurePenalty is added to the score when the module-export or
// transform-declaration shape is missing.
const structurePenalty = 3.0

// SecurityAnalysis is the verdict for one module's source text. Produced
// fresh on every call; the content hash exists for caller-side caching
// and audit traceability only and plays no part in the safety decision.
type SecurityAnalysis struct {
	Safe            bool     `json:"safe"`
	RiskScore       float64  `json:"risk_score"`
	Warnings        []string `json:"warnings"`
	BlockedPatterns []string `json:"blocked_patterns"`
	StructureValid  bool     `json:"structure_valid"`
	ContentHash     string   `json:"content_hash"`
}

var (
	// A recognizable export statement: CommonJS assignment forms or an
	// ES default export.
	exportShape = regexp.MustCompile(`module\s*\.\s*exports\s*=|\bexports\s*\.\s*\w+\s*=|\bexport\s+default\b`)

	// A recognizable transform-function declaration in any accepted
	// spelling: function expression, arrow function, async variants,
	// object-literal method shorthand, or a named function.
	transformShape = regexp.MustCompile(
		`transform\s*:\s*(?:async\s+)?function\b` +
			`|transform\s*:\s*(?:async\s*)?\(` +
			`|transform\s*:\s*(?:async\s+)?\w+\s*=>` +
			`|(?:async\s+)?transform\s*\([^)]*\)\s*\{` +
			`|function\s+transform\s*\(` +
			`|transform\s*=\s*(?:async\s+)?(?:function\b|\()`,
	)
)

// Analyze scans sourceText against the fixed risk catalog. It is a pure
// function of the text: no I/O, deterministic, and never fails on
// well-formed string input.
func Analyze(sourceText string) SecurityAnalysis {
	analysis := SecurityAnalysis{
		Warnings:        []string{},
		BlockedPatterns: []string{},
		StructureValid:  true,
	}

	var score float64
	for _, p := range riskCatalog {
		occurrences := len(p.Matcher.FindAllStringIndex(sourceText, -1))
		if occurrences == 0 {
			continue
		}

		warning := fmt.Sprintf("%s (%d occurrence(s))", p.Description, occurrences)
		analysis.Warnings = append(analysis.Warnings, warning)
		if p.Severity == SeverityHigh || p.Severity == SeverityCritical {
			analysis.BlockedPatterns = append(analysis.BlockedPatterns, warning)
		}

		// A repeated pattern saturates at double its base weight so one
		// construct cannot dominate the aggregate on its own.
		score += math.Min(p.Weight*float64(occurrences), p.Weight*2)
	}

	if !exportShape.MatchString(sourceText) || !transformShape.MatchString(sourceText) {
		analysis.StructureValid = false
		analysis.Warnings = append(analysis.Warnings,
			"module structure is invalid: missing export statement or transform function declaration")
		score += structurePenalty
	}

	if score > 10 {
		score = 10
	}
	analysis.RiskScore = roundScore(score)

	digest := sha256.Sum256([]byte(sourceText))
	analysis.ContentHash = hex.EncodeToString(digest[:])

	analysis.Safe = analysis.RiskScore < unsafeThreshold &&
		len(analysis.BlockedPatterns) == 0 &&
		analysis.StructureValid

	return analysis
}

// roundScore rounds to one decimal place.
func roundScore(score float64) float64 {
	return math.Round(score*10) / 10
}
