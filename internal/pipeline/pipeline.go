// Package pipeline applies an ordered sequence of transform modules to
// a document. Execution is strictly sequential: each unit completes
// before the next begins, because later transforms may depend on the
// cumulative tree state left by earlier ones.
package pipeline

import (
	"github.com/hashicorp/go-hclog"

	"github.com/docmorph/docmorph/internal/document"
	"github.com/docmorph/docmorph/internal/loader"
	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

// Context is the shared value handed to every transform. Field and
// method names cross into the script runtime with a lowercased first
// letter: ctx.document, ctx.reference, ctx.config,
// ctx.copyAttributes(...), and so on.
type Context struct {
	Document  *document.Document
	Reference *document.Document
	Config    map[string]interface{}
}

// CopyAttributes copies every attribute of the first node in src onto dst.
func (c *Context) CopyAttributes(src, dst *document.Selection) {
	document.CopyAttributes(src, dst)
}

// MigrateChildren moves src's child nodes to the end of dst's content.
func (c *Context) MigrateChildren(src, dst *document.Selection) {
	document.MigrateChildren(src, dst)
}

// ReplaceElement swaps the target selection for the given markup.
func (c *Context) ReplaceElement(target *document.Selection, markup string) {
	document.ReplaceElement(target, markup)
}

// Pipeline loads and applies transform modules.
type Pipeline struct {
	loader            *loader.Loader
	logger            hclog.Logger
	skipSecurityCheck bool
}

// New creates a Pipeline. skipSecurityCheck is propagated to every
// module load.
func New(logger hclog.Logger, skipSecurityCheck bool) *Pipeline {
	return &Pipeline{
		loader:            loader.New(logger),
		logger:            logger,
		skipSecurityCheck: skipSecurityCheck,
	}
}

// Load resolves every module path through the loader, in order. Any
// failure aborts: no module runs unless the whole batch cleared the
// gate.
func (p *Pipeline) Load(modulePaths []string) ([]*loader.Descriptor, error) {
	descriptors := make([]*loader.Descriptor, 0, len(modulePaths))
	for _, path := range modulePaths {
		descriptor, err := p.loader.Load(path, p.skipSecurityCheck)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("loaded transform module",
			"file", descriptor.FileName, "name", descriptor.Unit.Name)
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

// Run loads the modules and applies each unit to the context's document
// in strict list order. A transform that throws aborts immediately; the
// error names the failing unit.
func (p *Pipeline) Run(ctx *Context, modulePaths []string) error {
	descriptors, err := p.Load(modulePaths)
	if err != nil {
		return err
	}

	for _, descriptor := range descriptors {
		p.logger.Info("applying transform", "name", descriptor.Unit.Name)
		if err := descriptor.Unit.Apply(ctx); err != nil {
			return sharederrors.NewTransform(descriptor.Unit.Name, err)
		}
	}
	return nil
}
