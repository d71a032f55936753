package audit

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docmorph/docmorph/internal/analyzer"
	"github.com/docmorph/docmorph/internal/pathguard"
	"github.com/docmorph/docmorph/internal/report"
	"github.com/docmorph/docmorph/pkg/shared/config"
	"github.com/docmorph/docmorph/pkg/shared/logger"
)

// RunOptionsAudit holds the arguments for the audit command.
type RunOptionsAudit struct {
	ModulesDir   string
	Format       string
	Output       string
	ListPatterns bool
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	auditOptions      RunOptionsAudit
	exampleAuditUsage = `  # Summarize the risk of every module in a directory
  docmorph audit --modules-dir ./modules

  # Write a SARIF report for tooling
  docmorph audit --modules-dir ./modules --format sarif --output audit.sarif

  # Full machine-readable results
  docmorph audit ./modules --format json

  # Show the risk pattern catalog the gate applies
  docmorph audit --list-patterns`
)

// AuditCmd represents the audit command.
var AuditCmd = &cobra.Command{
	Use:                   "audit [--modules-dir/-m PATH | PATH] [--format/-f text|json|sarif] [--output/-o PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAuditUsage,
	Short:                 "Runs the risk analyzer over a directory of transform modules",
	RunE:                  runAuditCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runAuditCommand executes the audit command.
func runAuditCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-audit")

	if auditOptions.ListPatterns {
		printCatalog()
		return nil
	}

	if err := validateAuditArgs(&auditOptions, args, AppConfig); err != nil {
		logger.Error("invalid audit arguments", "error", err)
		return err
	}

	guard := pathguard.New(pathguard.NewPolicy())
	modulesDir, err := guard.ValidateDirectory(auditOptions.ModulesDir)
	if err != nil {
		logger.Error("modules directory rejected", "path", auditOptions.ModulesDir, "error", err)
		return err
	}

	results, err := analyzer.AnalyzeDir(modulesDir.String())
	if err != nil {
		logger.Error("batch analysis failed", "path", modulesDir.String(), "error", err)
		return err
	}

	out, closeOut, err := openOutput(guard, auditOptions.Output)
	if err != nil {
		logger.Error("failed to open output", "path", auditOptions.Output, "error", err)
		return err
	}
	defer closeOut()

	switch auditOptions.Format {
	case "sarif":
		err = report.WriteSarif(out, results)
	case "json":
		err = report.WriteJSON(out, results)
	default:
		err = writeText(out, results)
	}
	if err != nil {
		logger.Error("failed to render audit report", "format", auditOptions.Format, "error", err)
		return err
	}

	logger.Info("audit command completed successfully", "modules", len(results))
	return nil
}

// writeText renders the per-file verdicts and the aggregate summary.
func writeText(w io.Writer, results map[string]analyzer.SecurityAnalysis) error {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		analysis := results[name]
		verdict := "SAFE"
		if !analysis.Safe {
			verdict = "UNSAFE"
		}
		fmt.Fprintf(w, "%-40s %-6s score %.1f\n", name, verdict, analysis.RiskScore)
		for _, warning := range analysis.Warnings {
			fmt.Fprintf(w, "    - %s\n", warning)
		}
	}

	summary := analyzer.Summarize(results)
	fmt.Fprintf(w, "\nTotal: %d  Safe: %d  Unsafe: %d  Average risk score: %.1f\n",
		summary.Total, summary.Safe, summary.Unsafe, summary.AverageRiskScore)
	if summary.HighestRiskFile != "" {
		fmt.Fprintf(w, "Highest risk: %s (%.1f)\n", summary.HighestRiskFile, summary.HighestRiskScore)
	}
	return nil
}

// printCatalog lists the fixed risk pattern catalog for introspection.
func printCatalog() {
	fmt.Println("Risk pattern catalog:")
	for _, pattern := range analyzer.Catalog() {
		fmt.Printf("  [%-8s] weight %.0f  %s\n", pattern.Severity, pattern.Weight, pattern.Description)
	}

	policy := pathguard.NewPolicy()
	fmt.Println("\nAllowed extensions:")
	fmt.Printf("  %v\n", policy.AllowedExtensions())
	fmt.Println("\nBlocked path patterns:")
	for _, description := range policy.BlockedPatternDescriptions() {
		fmt.Printf("  - %s\n", description)
	}
}

// openOutput returns the report destination: a guard-validated created
// file, or stdout when no output path is set.
func openOutput(guard *pathguard.Guard, path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	resolved, err := guard.ValidatePath(path, "")
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Create(resolved.String())
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// Initialize flags for the audit command.
func init() {
	AuditCmd.Flags().StringVarP(&auditOptions.ModulesDir, "modules-dir", "m", "", "Directory containing the transform modules to audit.")
	AuditCmd.Flags().StringVarP(&auditOptions.Format, "format", "f", "text", "Report format: text, json, or sarif.")
	AuditCmd.Flags().StringVarP(&auditOptions.Output, "output", "o", "", "Path for the report file. Defaults to stdout.")
	AuditCmd.Flags().BoolVar(&auditOptions.ListPatterns, "list-patterns", false, "Print the risk pattern catalog and the path policy, then exit.")
	AuditCmd.Flags().BoolP("help", "h", false, "Show help for the audit command.")
}
