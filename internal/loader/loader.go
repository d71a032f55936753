// Package loader resolves a transform module file into an executable
// unit. The risk gate is consulted before any module code is evaluated;
// evaluation itself happens in an embedded script runtime with no host
// filesystem, network, or process bindings injected.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/hashicorp/go-hclog"

	"github.com/docmorph/docmorph/internal/analyzer"
	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

// TransformUnit is one loaded, named, callable transform procedure. It
// is owned by the pipeline for the duration of a single run.
type TransformUnit struct {
	Name        string
	Description string
	Order       int
	OrderSet    bool

	vm *goja.Runtime
	fn goja.Callable
}

// Apply invokes the transform procedure with the given context value.
// Script exceptions come back as errors.
func (u *TransformUnit) Apply(ctx interface{}) error {
	if _, err := u.fn(goja.Undefined(), u.vm.ToValue(ctx)); err != nil {
		if ex, ok := err.(*goja.Exception); ok {
			return fmt.Errorf("%s", ex.String())
		}
		return err
	}
	return nil
}

// Descriptor ties a loaded unit back to the file it came from. Created
// when a file passes the gate, discarded after the pipeline run.
type Descriptor struct {
	FileName     string
	ResolvedPath string
	Unit         *TransformUnit
}

// Loader loads transform modules, consulting the risk analyzer first
// unless explicitly bypassed.
type Loader struct {
	logger hclog.Logger
}

// New creates a Loader.
func New(logger hclog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads, gates, and evaluates the module at filePath. Unless
// skipSecurityCheck is set, an unsafe analysis is a hard stop with a
// SecurityRejectionError enumerating warnings, blocked patterns, and
// score, distinguishable from "module not found". Modules that evaluate
// but do not export a callable transform fail with a StructuralError.
func (l *Loader) Load(filePath string, skipSecurityCheck bool) (*Descriptor, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, sharederrors.NewMissingResource(filePath, err)
	}
	source := string(data)

	if skipSecurityCheck {
		l.logger.Warn("security check bypassed for module", "path", filePath)
	} else {
		analysis := analyzer.Analyze(source)
		if !analysis.Safe {
			return nil, sharederrors.NewSecurityRejection(
				filePath, analysis.RiskScore, analysis.Warnings, analysis.BlockedPatterns)
		}
		// Low/medium findings on a passing module are diagnostics, not
		// failures.
		for _, warning := range analysis.Warnings {
			l.logger.Warn("module passed the risk gate with findings",
				"path", filePath, "finding", warning)
		}
		l.logger.Debug("module cleared by risk gate",
			"path", filePath, "risk_score", analysis.RiskScore, "content_hash", analysis.ContentHash)
	}

	unit, err := l.evaluate(filePath, source)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		FileName:     filepath.Base(filePath),
		ResolvedPath: filePath,
		Unit:         unit,
	}, nil
}

// evaluate runs the module source in a fresh runtime with a CommonJS
// style module/exports pair and extracts the exported transform unit.
func (l *Loader) evaluate(filePath, source string) (*TransformUnit, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, sharederrors.NewStructural(filePath, fmt.Sprintf("runtime setup failed: %v", err))
	}
	if err := vm.Set("module", module); err != nil {
		return nil, sharederrors.NewStructural(filePath, fmt.Sprintf("runtime setup failed: %v", err))
	}
	if err := vm.Set("exports", exports); err != nil {
		return nil, sharederrors.NewStructural(filePath, fmt.Sprintf("runtime setup failed: %v", err))
	}

	if _, err := vm.RunScript(filepath.Base(filePath), source); err != nil {
		return nil, sharederrors.NewStructural(filePath, fmt.Sprintf("module failed to evaluate: %v", err))
	}

	exported := module.Get("exports")
	if exported == nil || goja.IsUndefined(exported) || goja.IsNull(exported) {
		return nil, sharederrors.NewStructural(filePath, "module has no export")
	}
	obj := exported.ToObject(vm)
	if obj == nil {
		return nil, sharederrors.NewStructural(filePath, "module export is not an object")
	}

	fn, ok := goja.AssertFunction(obj.Get("transform"))
	if !ok {
		return nil, sharederrors.NewStructural(filePath, "module export lacks a callable transform field")
	}

	unit := &TransformUnit{
		Name: strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)),
		vm:   vm,
		fn:   fn,
	}
	if v := obj.Get("name"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if name := v.String(); name != "" {
			unit.Name = name
		}
	}
	if v := obj.Get("description"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		unit.Description = v.String()
	}
	if v := obj.Get("order"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		unit.Order = int(v.ToInteger())
		unit.OrderSet = true
	}

	return unit, nil
}
