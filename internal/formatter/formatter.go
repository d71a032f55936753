// Package formatter wraps the HTML formatting collaborator. Formatting
// is best-effort: a failure returns the original markup untouched and
// is never fatal to the run.
package formatter

import (
	"github.com/yosssi/gohtml"

	"github.com/docmorph/docmorph/pkg/shared/config"
)

// Format pretty-prints markup according to the formatter configuration.
// On any internal failure the input is returned unchanged.
func Format(markup string, cfg *config.Formatter) (formatted string) {
	defer func() {
		if recover() != nil {
			formatted = markup
		}
	}()

	if cfg != nil {
		gohtml.Condense = cfg.Condense
	}

	formatted = gohtml.Format(markup)
	if formatted == "" && markup != "" {
		return markup
	}
	return formatted
}
