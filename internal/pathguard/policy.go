package pathguard

import (
	"regexp"
	"sort"
)

// Policy is the process-wide, read-only path safety configuration:
// the blocked path patterns and the extension allow-list. Constructed
// once at startup and never mutated.
type Policy struct {
	blocked     []blockedRule
	allowedExts map[string]struct{}
}

type blockedRule struct {
	pattern     *regexp.Regexp
	description string
}

// maxGlobTraversalDepth caps the number of ".." segments accepted in a
// glob pattern's literal prefix.
const maxGlobTraversalDepth = 2

var defaultBlockedRules = []blockedRule{
	{regexp.MustCompile(`\.\.(/|\\|$)`), "parent directory traversal"},
	{regexp.MustCompile(`^/etc(/|$)`), "system configuration directory"},
	{regexp.MustCompile(`^/proc(/|$)`), "kernel process directory"},
	{regexp.MustCompile(`^/sys(/|$)`), "kernel system directory"},
	{regexp.MustCompile(`^/dev(/|$)`), "device directory"},
	{regexp.MustCompile(`^/boot(/|$)`), "boot directory"},
	{regexp.MustCompile(`^/root(/|$)`), "root home directory"},
	{regexp.MustCompile(`(?i)^[a-z]:[/\\]windows`), "windows system directory"},
	{regexp.MustCompile(`(^|/)\.ssh(/|$)`), "ssh configuration directory"},
	{regexp.MustCompile(`id_(rsa|dsa|ecdsa|ed25519)`), "private key file name"},
	{regexp.MustCompile(`(?i)\.(pem|p12|pfx|keystore)$`), "credential file extension"},
	{regexp.MustCompile(`(^|/)\.env(\.|$)`), "environment secrets file"},
	{regexp.MustCompile(`(^|/)\.[^/.][^/]*$`), "hidden dotfile"},
}

// defaultAllowedExtensions covers document, script/module, config, style
// and documentation formats. Unknown or absent extensions fail closed.
var defaultAllowedExtensions = []string{
	".html", ".htm", ".xhtml",
	".js", ".mjs", ".cjs",
	".json", ".yaml", ".yml",
	".css", ".md", ".txt",
}

// NewPolicy builds the default path safety policy.
func NewPolicy() *Policy {
	exts := make(map[string]struct{}, len(defaultAllowedExtensions))
	for _, ext := range defaultAllowedExtensions {
		exts[ext] = struct{}{}
	}
	return &Policy{
		blocked:     defaultBlockedRules,
		allowedExts: exts,
	}
}

// AllowedExtensions lists the extension allow-list, sorted, for
// introspection and tooling.
func (p *Policy) AllowedExtensions() []string {
	out := make([]string, 0, len(p.allowedExts))
	for ext := range p.allowedExts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// BlockedPatternDescriptions lists the human-readable descriptions of the
// blocked path patterns, in rule order.
func (p *Policy) BlockedPatternDescriptions() []string {
	out := make([]string, 0, len(p.blocked))
	for _, rule := range p.blocked {
		out = append(out, rule.description)
	}
	return out
}
