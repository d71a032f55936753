package errors

import (
	"fmt"
	"strings"
)

// PathViolationError reports a path that is blocked by policy or escapes
// its declared base directory. Path safety is fail-closed, so this error
// is always fatal for the operation that raised it.
type PathViolationError struct {
	Path string
	Rule string
}

// Error implements the error interface for PathViolationError.
func (e *PathViolationError) Error() string {
	return fmt.Sprintf("path violation: %q: %s", e.Path, e.Rule)
}

// NewPathViolation creates a new PathViolationError.
func NewPathViolation(path, rule string) error {
	return &PathViolationError{Path: path, Rule: rule}
}

// MissingResourceError reports a required file or directory that does not
// exist or cannot be accessed.
type MissingResourceError struct {
	Path string
	Err  error
}

// Error implements the error interface for MissingResourceError.
func (e *MissingResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing resource %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("missing resource %q", e.Path)
}

// Unwrap returns the underlying cause.
func (e *MissingResourceError) Unwrap() error {
	return e.Err
}

// NewMissingResource creates a new MissingResourceError wrapping the cause.
func NewMissingResource(path string, err error) error {
	return &MissingResourceError{Path: path, Err: err}
}

// SecurityRejectionError reports a transform module that failed the risk
// gate. It carries the full analysis verdict so callers can render the
// warnings, the blocked patterns, and the score.
type SecurityRejectionError struct {
	Path            string
	RiskScore       float64
	Warnings        []string
	BlockedPatterns []string
}

// Error implements the error interface, enumerating the verdict details.
func (e *SecurityRejectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "security rejection for %q (risk score %.1f)", e.Path, e.RiskScore)
	if len(e.BlockedPatterns) > 0 {
		fmt.Fprintf(&b, "; blocked patterns: %s", strings.Join(e.BlockedPatterns, "; "))
	}
	if len(e.Warnings) > 0 {
		fmt.Fprintf(&b, "; warnings: %s", strings.Join(e.Warnings, "; "))
	}
	return b.String()
}

// NewSecurityRejection creates a new SecurityRejectionError.
func NewSecurityRejection(path string, score float64, warnings, blocked []string) error {
	return &SecurityRejectionError{
		Path:            path,
		RiskScore:       score,
		Warnings:        warnings,
		BlockedPatterns: blocked,
	}
}

// StructuralError reports a module that was readable and passed (or
// skipped) the risk gate but does not have the shape of a transform
// module: it failed to evaluate, or its export lacks a callable
// transform. Kept distinct from SecurityRejectionError so callers can
// react differently to malformed modules than to dangerous ones.
type StructuralError struct {
	Path   string
	Reason string
}

// Error implements the error interface for StructuralError.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid module structure in %q: %s", e.Path, e.Reason)
}

// NewStructural creates a new StructuralError.
func NewStructural(path, reason string) error {
	return &StructuralError{Path: path, Reason: reason}
}

// TransformError reports a loaded transform that failed while being
// applied to the document. It names the failing unit and aborts the
// remaining pipeline.
type TransformError struct {
	Module string
	Err    error
}

// Error implements the error interface for TransformError.
func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q failed: %v", e.Module, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransform creates a new TransformError naming the failing unit.
func NewTransform(module string, err error) error {
	return &TransformError{Module: module, Err: err}
}
