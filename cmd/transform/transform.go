package transform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/docmorph/docmorph/internal/document"
	"github.com/docmorph/docmorph/internal/formatter"
	"github.com/docmorph/docmorph/internal/pathguard"
	"github.com/docmorph/docmorph/internal/pipeline"
	"github.com/docmorph/docmorph/pkg/shared/config"
	"github.com/docmorph/docmorph/pkg/shared/files"
	"github.com/docmorph/docmorph/pkg/shared/logger"
)

// RunOptionsTransform holds the arguments for the transform command.
type RunOptionsTransform struct {
	Input             string
	Output            string
	ModulesDir        string
	Reference         string
	BaseDir           string
	Order             []string
	DryRun            bool
	Verbose           bool
	SkipFormat        bool
	SkipSecurityCheck bool
}

// Global variables for configuration and command arguments
var (
	AppConfig             *config.Config
	transformOptions      RunOptionsTransform
	exampleTransformUsage = `  # Apply the modules from ./modules to a single document
  docmorph transform --input page.html --modules-dir ./modules --output out/page.html

  # Apply the pipeline to every document matched by a glob
  docmorph transform --input 'site/**/*.html' --modules-dir ./modules --output ./dist

  # Resolve order and gate the modules without touching the document
  docmorph transform --input page.html --modules-dir ./modules --dry-run

  # Bypass the risk gate (modules run unchecked; use for trusted local modules only)
  docmorph transform --input page.html --modules-dir ./modules --skip-security-check

  # Use a reference document and an explicit module order
  docmorph transform --input page.html --reference template.html --order 10-titles.js --order 20-links.js`
)

// TransformCmd represents the transform command.
var TransformCmd = &cobra.Command{
	Use:                   "transform --input/-i PATH|GLOB [--modules-dir/-m PATH] [--output/-o PATH] [--reference/-r PATH] [flags]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleTransformUsage,
	Short:                 "Applies the configured transform modules to one or more documents",
	RunE:                  runTransformCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runTransformCommand executes the transform command.
func runTransformCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-transform")

	if err := validateTransformArgs(&transformOptions, args); err != nil {
		logger.Error("invalid transform arguments", "error", err)
		return err
	}

	opts := resolveOptions(&transformOptions, AppConfig)
	guard := pathguard.New(pathguard.NewPolicy())

	modulesDir, err := guard.ValidateDirectory(opts.ModulesDir)
	if err != nil {
		logger.Error("modules directory rejected", "path", opts.ModulesDir, "error", err)
		return err
	}

	inputs, err := resolveInputs(guard, opts)
	if err != nil {
		logger.Error("input rejected", "input", opts.Input, "error", err)
		return err
	}

	if opts.Output != "" {
		if err := ensureDistinctOutputNames(inputs); err != nil {
			logger.Error("output name collision", "error", err)
			return err
		}
	}

	modulePaths, orderedNames, err := resolveModulePaths(guard, modulesDir, opts.Order)
	if err != nil {
		logger.Error("module resolution failed", "error", err)
		return err
	}

	runID := uuid.NewString()
	logger.Info("starting transform run",
		"run_id", runID, "documents", len(inputs), "modules", len(modulePaths),
		"skip_security_check", opts.SkipSecurityCheck, "dry_run", opts.DryRun)

	if opts.DryRun {
		return runDryRun(logger, opts, modulePaths)
	}

	reference, err := loadReference(guard, opts)
	if err != nil {
		logger.Error("reference document rejected", "path", opts.Reference, "error", err)
		return err
	}

	for _, input := range inputs {
		if err := transformOne(logger, guard, opts, input, reference, modulePaths, len(inputs) > 1); err != nil {
			logger.Error("transform run failed", "run_id", runID, "input", input, "error", err)
			return err
		}
	}

	logger.Info("transform command completed successfully", "run_id", runID, "order", orderedNames)
	return nil
}

// resolveOptions merges command-line flags with the YAML configuration.
// A flag set on the command line wins; config supplies the rest.
func resolveOptions(cliOpts *RunOptionsTransform, cfg *config.Config) *RunOptionsTransform {
	opts := *cliOpts

	if cfg != nil {
		opts.ModulesDir = config.SetThen(opts.ModulesDir, cfg.Transform.ModulesDir)
		if len(opts.Order) == 0 {
			opts.Order = cfg.Transform.ModuleOrder
		}
		opts.DryRun = opts.DryRun || config.GetBoolValue(cfg, "Transform.DryRun", false)
		opts.Verbose = opts.Verbose || config.GetBoolValue(cfg, "Transform.Verbose", false)
		opts.SkipFormat = opts.SkipFormat || config.GetBoolValue(cfg, "Transform.SkipFormat", false)
		opts.SkipSecurityCheck = opts.SkipSecurityCheck || config.GetBoolValue(cfg, "Transform.SkipSecurityCheck", false)
	}
	opts.ModulesDir = config.SetThen(opts.ModulesDir, "./modules")
	opts.BaseDir = config.SetThen(opts.BaseDir, ".")

	return &opts
}

// resolveInputs expands the input argument into one or more validated
// document paths. A glob pattern is validated before expansion and every
// match must individually clear the guard.
func resolveInputs(guard *pathguard.Guard, opts *RunOptionsTransform) ([]string, error) {
	if !isGlobPattern(opts.Input) {
		resolved, err := guard.ValidateFile(opts.Input, opts.BaseDir)
		if err != nil {
			return nil, err
		}
		return []string{resolved.String()}, nil
	}

	if err := guard.ValidateGlobPattern(opts.Input, opts.BaseDir); err != nil {
		return nil, err
	}

	matches, err := doublestar.FilepathGlob(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to expand glob %q: %w", opts.Input, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("glob %q matched no documents", opts.Input)
	}

	inputs := make([]string, 0, len(matches))
	for _, match := range matches {
		resolved, err := guard.ValidateFile(match, opts.BaseDir)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, resolved.String())
	}
	return inputs, nil
}

// resolveModulePaths discovers the module files, applies the ordering
// policy, and validates each resulting path against the modules
// directory as its base.
func resolveModulePaths(guard *pathguard.Guard, modulesDir pathguard.ResolvedPath, order []string) ([]string, []string, error) {
	discovered, err := pipeline.DiscoverModules(modulesDir.String())
	if err != nil {
		return nil, nil, err
	}

	orderedNames := pipeline.OrderModules(discovered, order)
	paths := make([]string, 0, len(orderedNames))
	for _, name := range orderedNames {
		resolved, err := guard.ValidateFile(filepath.Join(modulesDir.String(), name), modulesDir.String())
		if err != nil {
			return nil, nil, err
		}
		paths = append(paths, resolved.String())
	}
	return paths, orderedNames, nil
}

// ensureDistinctOutputNames rejects batches in which two matched
// documents resolve to the same output base name; writing them would
// silently overwrite one with the other in the output directory.
func ensureDistinctOutputNames(inputs []string) error {
	if len(inputs) < 2 {
		return nil
	}
	seen := make(map[string]string, len(inputs))
	for _, input := range inputs {
		name := filepath.Base(input)
		if previous, ok := seen[name]; ok {
			return fmt.Errorf("documents %q and %q both resolve to output name %q", previous, input, name)
		}
		seen[name] = input
	}
	return nil
}

// runDryRun loads and gates every module, then reports the planned
// order without touching any document.
func runDryRun(logger hclog.Logger, opts *RunOptionsTransform, modulePaths []string) error {
	p := pipeline.New(logger, opts.SkipSecurityCheck)
	descriptors, err := p.Load(modulePaths)
	if err != nil {
		return err
	}

	fmt.Println("Planned module order:")
	for i, descriptor := range descriptors {
		line := fmt.Sprintf("  %d. %s (%s)", i+1, descriptor.Unit.Name, descriptor.FileName)
		if descriptor.Unit.Description != "" {
			line += " - " + descriptor.Unit.Description
		}
		fmt.Println(line)
	}
	return nil
}

// loadReference parses the optional reference/template document.
func loadReference(guard *pathguard.Guard, opts *RunOptionsTransform) (*document.Document, error) {
	if opts.Reference == "" {
		return nil, nil
	}

	resolved, err := guard.ValidateFile(opts.Reference, opts.BaseDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved.String())
	if err != nil {
		return nil, err
	}
	return document.Parse(string(data))
}

// transformOne runs the full pipeline against a single document and
// writes the result.
func transformOne(logger hclog.Logger, guard *pathguard.Guard, opts *RunOptionsTransform,
	input string, reference *document.Document, modulePaths []string, multi bool) error {

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	doc, err := document.Parse(string(data))
	if err != nil {
		return err
	}

	ctx := &pipeline.Context{
		Document:  doc,
		Reference: reference,
		Config:    moduleConfig(AppConfig),
	}

	p := pipeline.New(logger, opts.SkipSecurityCheck)
	if err := p.Run(ctx, modulePaths); err != nil {
		return err
	}

	markup, err := doc.Html()
	if err != nil {
		return err
	}
	if !opts.SkipFormat {
		markup = formatter.Format(markup, formatterConfig(AppConfig))
	}

	return writeResult(logger, guard, opts, input, markup, multi)
}

// writeResult sends the transformed markup to stdout or the configured
// output location. With multiple inputs the output names each document
// by its original base name. The resolved output path must clear the
// guard before anything is created.
func writeResult(logger hclog.Logger, guard *pathguard.Guard, opts *RunOptionsTransform, input, markup string, multi bool) error {
	if opts.Output == "" {
		fmt.Println(markup)
		return nil
	}

	nameTemplate := filepath.Base(input)
	outputPath := opts.Output
	if multi {
		outputPath = filepath.Join(opts.Output, nameTemplate)
	}

	fullPath, _, err := files.DetermineFileFullPath(outputPath, nameTemplate)
	if err != nil {
		return err
	}
	resolved, err := guard.ValidatePath(fullPath, "")
	if err != nil {
		return err
	}
	if err := files.CreateFolderIfNotExists(filepath.Dir(resolved.String())); err != nil {
		return err
	}
	if err := files.WriteDataFile(resolved.String(), []byte(markup)); err != nil {
		return err
	}

	logger.Info("document written", "input", input, "output", resolved.String())
	return nil
}

func moduleConfig(cfg *config.Config) map[string]interface{} {
	if cfg == nil {
		return nil
	}
	return cfg.Transform.ModuleConfig
}

func formatterConfig(cfg *config.Config) *config.Formatter {
	if cfg == nil {
		return nil
	}
	return &cfg.Formatter
}

// Initialize flags for the transform command.
func init() {
	TransformCmd.Flags().StringVarP(&transformOptions.Input, "input", "i", "", "Path to the document to transform, or a glob pattern matching several documents.")
	TransformCmd.Flags().StringVarP(&transformOptions.Output, "output", "o", "", "Path to the output file or directory. Defaults to stdout.")
	TransformCmd.Flags().StringVarP(&transformOptions.ModulesDir, "modules-dir", "m", "", "Directory containing the transform modules (default ./modules).")
	TransformCmd.Flags().StringVarP(&transformOptions.Reference, "reference", "r", "", "Optional reference/template document made available to transforms.")
	TransformCmd.Flags().StringVar(&transformOptions.BaseDir, "base", "", "Allowed root for input and reference paths (default current directory).")
	TransformCmd.Flags().StringArrayVar(&transformOptions.Order, "order", nil, "Explicit module execution order (repeatable; bare file names).")
	TransformCmd.Flags().BoolVar(&transformOptions.DryRun, "dry-run", false, "Gate and order the modules, report the plan, change nothing.")
	TransformCmd.Flags().BoolVarP(&transformOptions.Verbose, "verbose", "v", false, "Verbose diagnostics.")
	TransformCmd.Flags().BoolVar(&transformOptions.SkipFormat, "skip-format", false, "Skip the output formatting step.")
	TransformCmd.Flags().BoolVar(&transformOptions.SkipSecurityCheck, "skip-security-check", false, "Bypass the module risk gate. Modules run unchecked.")
	TransformCmd.Flags().BoolP("help", "h", false, "Show help for the transform command.")
}
