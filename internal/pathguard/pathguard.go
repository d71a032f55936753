// Package pathguard confines every file and directory path the tool
// touches to a safety policy: blocked system locations, a fixed
// extension allow-list, and the guarantee that a validated path cannot
// resolve outside its declared base directory. All rejections are typed
// errors and fail closed.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
	"github.com/docmorph/docmorph/pkg/shared/files"
)

// ResolvedPath is a validated absolute path. It is recomputed on every
// access; the filesystem can change between validation and use, so
// callers must tolerate a later existence check failing.
type ResolvedPath string

// String returns the path as a plain string.
func (p ResolvedPath) String() string {
	return string(p)
}

// Guard applies a Policy to concrete paths.
type Guard struct {
	policy *Policy
}

// New creates a Guard over the given policy.
func New(policy *Policy) *Guard {
	return &Guard{policy: policy}
}

// IsBlocked normalizes the path and tests it against the blocked-pattern
// set. Pure, no I/O. Both the raw and the cleaned spelling are tested so
// traversal sequences cannot hide behind normalization.
func (g *Guard) IsBlocked(path string) bool {
	_, blocked := g.matchBlocked(path)
	return blocked
}

func (g *Guard) matchBlocked(path string) (string, bool) {
	candidates := []string{
		filepath.ToSlash(path),
		filepath.ToSlash(filepath.Clean(path)),
	}
	for _, rule := range g.policy.blocked {
		for _, candidate := range candidates {
			if rule.pattern.MatchString(candidate) {
				return rule.description, true
			}
		}
	}
	return "", false
}

// ValidatePath rejects empty input and blocked paths, then, when a base
// is given, resolves the path against it and rejects any result that
// escapes the base directory. The returned path is absolute.
func (g *Guard) ValidatePath(path string, basePath string) (ResolvedPath, error) {
	if strings.TrimSpace(path) == "" {
		return "", sharederrors.NewPathViolation(path, "path is empty")
	}

	expanded, err := files.ExpandPath(path)
	if err != nil {
		return "", sharederrors.NewPathViolation(path, fmt.Sprintf("cannot expand path: %v", err))
	}

	if rule, blocked := g.matchBlocked(expanded); blocked {
		return "", sharederrors.NewPathViolation(path, fmt.Sprintf("matches blocked pattern: %s", rule))
	}

	if basePath == "" {
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", sharederrors.NewPathViolation(path, fmt.Sprintf("cannot resolve path: %v", err))
		}
		return ResolvedPath(abs), nil
	}

	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", sharederrors.NewPathViolation(basePath, fmt.Sprintf("cannot resolve base: %v", err))
	}

	target := expanded
	if !filepath.IsAbs(target) {
		target = filepath.Join(absBase, target)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", sharederrors.NewPathViolation(path, fmt.Sprintf("cannot resolve path: %v", err))
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", sharederrors.NewPathViolation(path,
			fmt.Sprintf("resolves outside base directory %q", absBase))
	}

	return ResolvedPath(absTarget), nil
}

// ValidateExtension requires a non-empty extension drawn from the fixed
// allow-list. Unknown or absent extensions fail closed.
func (g *Guard) ValidateExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return sharederrors.NewPathViolation(path, "file has no extension")
	}
	if _, ok := g.policy.allowedExts[ext]; !ok {
		return sharederrors.NewPathViolation(path, fmt.Sprintf("extension %q is not allowed", ext))
	}
	return nil
}

// ValidateDirectory layers existence and type checks on top of the
// blocked-pattern test.
func (g *Guard) ValidateDirectory(path string) (ResolvedPath, error) {
	resolved, err := g.ValidatePath(path, "")
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved.String())
	if err != nil {
		return "", sharederrors.NewMissingResource(path, err)
	}
	if !info.IsDir() {
		return "", sharederrors.NewMissingResource(path, fmt.Errorf("not a directory"))
	}
	return resolved, nil
}

// ValidateFile layers existence, regular-file, readability, and
// extension checks on top of ValidatePath.
func (g *Guard) ValidateFile(path string, basePath string) (ResolvedPath, error) {
	resolved, err := g.ValidatePath(path, basePath)
	if err != nil {
		return "", err
	}
	if err := g.ValidateExtension(resolved.String()); err != nil {
		return "", err
	}

	info, err := os.Stat(resolved.String())
	if err != nil {
		return "", sharederrors.NewMissingResource(path, err)
	}
	if info.IsDir() {
		return "", sharederrors.NewMissingResource(path, fmt.Errorf("is a directory, not a regular file"))
	}
	if info.Mode()&os.ModeType != 0 {
		return "", sharederrors.NewMissingResource(path, fmt.Errorf("not a regular file"))
	}

	f, err := os.Open(resolved.String())
	if err != nil {
		return "", sharederrors.NewMissingResource(path, fmt.Errorf("not readable: %w", err))
	}
	f.Close()

	return resolved, nil
}

// ValidateGlobPattern checks a glob pattern before expansion is handed
// to the glob collaborator: the pattern must be well formed, its literal
// base portion must not be blocked or escape basePath, and traversal
// depth is capped.
func (g *Guard) ValidateGlobPattern(pattern string, basePath string) error {
	if strings.TrimSpace(pattern) == "" {
		return sharederrors.NewPathViolation(pattern, "glob pattern is empty")
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return sharederrors.NewPathViolation(pattern, "malformed glob pattern")
	}

	traversals := 0
	for _, segment := range strings.Split(filepath.ToSlash(pattern), "/") {
		if segment == ".." {
			traversals++
		}
	}
	if traversals > maxGlobTraversalDepth {
		return sharederrors.NewPathViolation(pattern,
			fmt.Sprintf("glob traversal depth %d exceeds maximum of %d", traversals, maxGlobTraversalDepth))
	}

	literal := globLiteralBase(pattern)
	if literal == "" {
		return nil
	}
	if _, err := g.ValidatePath(literal, basePath); err != nil {
		return err
	}
	return nil
}

// globLiteralBase strips the glob suffix from a pattern, returning the
// literal directory portion before the first metacharacter.
func globLiteralBase(pattern string) string {
	slashed := filepath.ToSlash(pattern)
	metaIdx := strings.IndexAny(slashed, "*?[{")
	if metaIdx == -1 {
		return pattern
	}
	prefix := slashed[:metaIdx]
	sep := strings.LastIndex(prefix, "/")
	if sep == -1 {
		return ""
	}
	return filepath.FromSlash(prefix[:sep+1])
}
