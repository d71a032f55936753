package audit

import (
	"fmt"

	"github.com/docmorph/docmorph/pkg/shared/config"
)

// validateAuditArgs validates the arguments provided to the audit command.
func validateAuditArgs(opts *RunOptionsAudit, args []string, cfg *config.Config) error {
	if opts.ModulesDir == "" && len(args) > 0 {
		opts.ModulesDir = args[0]
	}
	if opts.ModulesDir == "" && cfg != nil {
		opts.ModulesDir = cfg.Transform.ModulesDir
	}
	if opts.ModulesDir == "" {
		return fmt.Errorf("the 'modules-dir' flag or a target path must be specified")
	}

	if len(args) > 1 {
		return fmt.Errorf("at most one positional target path is accepted")
	}

	switch opts.Format {
	case "", "text", "json", "sarif":
	default:
		return fmt.Errorf("unknown report format %q: expected text, json, or sarif", opts.Format)
	}

	return nil
}
