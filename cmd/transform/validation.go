package transform

import (
	"fmt"
	"strings"
)

// validateTransformArgs validates the arguments provided to the transform command.
func validateTransformArgs(opts *RunOptionsTransform, args []string) error {
	if opts.Input == "" && len(args) > 0 {
		opts.Input = args[0]
	}

	if opts.Input == "" {
		return fmt.Errorf("the 'input' flag or a target path must be specified")
	}

	if len(args) > 1 {
		return fmt.Errorf("at most one positional target path is accepted")
	}

	if opts.Input != "" && len(args) == 1 && opts.Input != args[0] {
		return fmt.Errorf("you cannot use an 'input' flag and a target path at the same time")
	}

	for _, name := range opts.Order {
		if name == "" {
			return fmt.Errorf("the 'order' flag contains an empty entry")
		}
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("order entry %q must be a bare file name, not a path", name)
		}
	}

	if opts.DryRun && opts.Output != "" {
		return fmt.Errorf("the 'output' flag has no effect with 'dry-run'")
	}

	return nil
}

// isGlobPattern reports whether the input names several documents via
// glob metacharacters rather than a single file.
func isGlobPattern(input string) bool {
	return strings.ContainsAny(input, "*?[{")
}
