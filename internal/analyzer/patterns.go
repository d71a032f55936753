package analyzer

import "regexp"

// Severity ranks how dangerous a matched construct is. High and critical
// matches unconditionally fail the safety gate regardless of the
// aggregate score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskPattern is a single lexical rule: a matcher, a human-readable
// description, a severity tier, and a risk-point weight. The catalog is
// fixed at startup and never mutated.
type RiskPattern struct {
	Matcher     *regexp.Regexp
	Description string
	Severity    Severity
	Weight      float64
}

// riskCatalog is the fixed, ordered set of rules applied to every
// transform module's source text. A pattern's score contribution
// saturates at twice its weight, so the weights below are calibrated
// against the 0-10 scale with an unsafe threshold of 7.
var riskCatalog = []RiskPattern{
	{
		Matcher:     regexp.MustCompile(`\beval\s*\(`),
		Description: "dynamic code evaluation via eval()",
		Severity:    SeverityCritical,
		Weight:      5,
	},
	{
		Matcher:     regexp.MustCompile(`new\s+Function\s*\(`),
		Description: "dynamic code construction via new Function()",
		Severity:    SeverityCritical,
		Weight:      5,
	},
	{
		Matcher:     regexp.MustCompile(`\bchild_process\b`),
		Description: "child process module usage",
		Severity:    SeverityCritical,
		Weight:      5,
	},
	{
		Matcher:     regexp.MustCompile(`\b(?:execSync|spawnSync|execFileSync)\s*\(`),
		Description: "synchronous process execution call",
		Severity:    SeverityCritical,
		Weight:      5,
	},
	{
		Matcher:     regexp.MustCompile(`\brequire\s*\(\s*['"](?:fs|fs/promises)['"]\s*\)`),
		Description: "filesystem module access",
		Severity:    SeverityHigh,
		Weight:      3,
	},
	{
		Matcher:     regexp.MustCompile(`\brequire\s*\(\s*['"](?:http|https|net|dgram|tls)['"]\s*\)`),
		Description: "network module access",
		Severity:    SeverityHigh,
		Weight:      3,
	},
	{
		Matcher:     regexp.MustCompile(`\b(?:writeFileSync|appendFileSync|unlinkSync|rmdirSync|rmSync)\s*\(`),
		Description: "destructive filesystem operation",
		Severity:    SeverityHigh,
		Weight:      3,
	},
	{
		Matcher:     regexp.MustCompile(`\bset(?:Timeout|Interval)\s*\(\s*['"]`),
		Description: "string-argument timer (implicit code evaluation)",
		Severity:    SeverityHigh,
		Weight:      3,
	},
	{
		Matcher:     regexp.MustCompile(`\bfetch\s*\(`),
		Description: "network request via fetch()",
		Severity:    SeverityMedium,
		Weight:      2,
	},
	{
		Matcher:     regexp.MustCompile(`\bXMLHttpRequest\b`),
		Description: "network request via XMLHttpRequest",
		Severity:    SeverityMedium,
		Weight:      2,
	},
	{
		Matcher:     regexp.MustCompile(`\bprocess\s*\.\s*env\b`),
		Description: "environment variable access",
		Severity:    SeverityMedium,
		Weight:      2,
	},
	{
		Matcher:     regexp.MustCompile(`\breadFile(?:Sync)?\s*\(`),
		Description: "filesystem read operation",
		Severity:    SeverityMedium,
		Weight:      2,
	},
	{
		Matcher:     regexp.MustCompile(`__proto__`),
		Description: "prototype chain manipulation",
		Severity:    SeverityMedium,
		Weight:      2,
	},
	{
		Matcher:     regexp.MustCompile(`\b__dirname\b|\b__filename\b`),
		Description: "module path introspection",
		Severity:    SeverityLow,
		Weight:      1,
	},
	{
		Matcher:     regexp.MustCompile(`\bprocess\s*\.\s*(?:argv|cwd|exit)\b`),
		Description: "process introspection",
		Severity:    SeverityLow,
		Weight:      1,
	},
}

// Catalog returns a copy of the fixed risk pattern catalog for
// introspection and tooling. The returned slice is safe to reorder;
// the patterns themselves are shared and must not be mutated.
func Catalog() []RiskPattern {
	out := make([]RiskPattern, len(riskCatalog))
	copy(out, riskCatalog)
	return out
}

// ModuleExtensions returns the file extensions recognised as transform
// modules by batch analysis and module discovery.
func ModuleExtensions() []string {
	return []string{".js", ".mjs", ".cjs"}
}
