package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

func newGuard() *Guard {
	return New(NewPolicy())
}

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		blocked bool
	}{
		{"traversal", "../secrets.html", true},
		{"nested traversal", "a/../../b.html", true},
		{"etc directory", "/etc/passwd", true},
		{"proc directory", "/proc/self/environ", true},
		{"ssh directory", "/home/user/.ssh/config", true},
		{"private key", "backup/id_rsa", true},
		{"pem file", "certs/server.pem", true},
		{"env file", "app/.env", true},
		{"env file with suffix", "app/.env.production", true},
		{"hidden dotfile", "project/.secrets", true},
		{"windows system dir", `C:\Windows\System32\config`, true},
		{"plain document", "site/index.html", false},
		{"plain module", "modules/10-titles.js", false},
		{"nested but contained", "a/b/c/page.html", false},
	}

	guard := newGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, guard.IsBlocked(tt.path), "path: %s", tt.path)
		})
	}
}

func TestValidatePathRejectsEmptyInput(t *testing.T) {
	guard := newGuard()

	_, err := guard.ValidatePath("", "")
	require.Error(t, err)
	var violation *sharederrors.PathViolationError
	assert.ErrorAs(t, err, &violation)

	_, err = guard.ValidatePath("   ", "")
	assert.Error(t, err)
}

func TestValidatePathContainment(t *testing.T) {
	base := t.TempDir()
	guard := newGuard()

	resolved, err := guard.ValidatePath("docs/page.html", base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "docs", "page.html"), resolved.String())
	assert.True(t, filepath.IsAbs(resolved.String()))
}

func TestValidatePathRejectsEscape(t *testing.T) {
	base := t.TempDir()
	guard := newGuard()

	tests := []string{
		"../outside.html",
		"docs/../../outside.html",
		"/completely/elsewhere/page.html",
	}
	for _, path := range tests {
		_, err := guard.ValidatePath(path, base)
		require.Error(t, err, "path: %s", path)

		var violation *sharederrors.PathViolationError
		assert.ErrorAs(t, err, &violation, "path: %s", path)
	}
}

func TestValidateExtension(t *testing.T) {
	guard := newGuard()

	assert.NoError(t, guard.ValidateExtension("page.html"))
	assert.NoError(t, guard.ValidateExtension("module.js"))
	assert.NoError(t, guard.ValidateExtension("settings.YAML"))

	assert.Error(t, guard.ValidateExtension("binary.exe"))
	assert.Error(t, guard.ValidateExtension("no-extension"))
}

func TestValidateFile(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "doc.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0644))

	guard := newGuard()
	resolved, err := guard.ValidateFile("doc.html", base)
	require.NoError(t, err)
	assert.Equal(t, path, resolved.String())
}

func TestValidateFileMissing(t *testing.T) {
	guard := newGuard()

	_, err := guard.ValidateFile("ghost.html", t.TempDir())
	require.Error(t, err)
	var missing *sharederrors.MissingResourceError
	assert.ErrorAs(t, err, &missing)
}

func TestValidateFileBadExtension(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "tool.exe"), []byte("x"), 0644))

	guard := newGuard()
	_, err := guard.ValidateFile("tool.exe", base)
	require.Error(t, err)
	var violation *sharederrors.PathViolationError
	assert.ErrorAs(t, err, &violation)
}

func TestValidateFileRejectsDirectory(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "dir.html"), 0755))

	guard := newGuard()
	_, err := guard.ValidateFile("dir.html", base)
	require.Error(t, err)
	var missing *sharederrors.MissingResourceError
	assert.ErrorAs(t, err, &missing)
}

func TestValidateDirectory(t *testing.T) {
	base := t.TempDir()
	guard := newGuard()

	resolved, err := guard.ValidateDirectory(base)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved.String()))

	_, err = guard.ValidateDirectory(filepath.Join(base, "missing"))
	var missing *sharederrors.MissingResourceError
	assert.ErrorAs(t, err, &missing)
}

func TestValidateGlobPattern(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "site"), 0755))
	guard := newGuard()

	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"simple glob", "site/*.html", false},
		{"recursive glob", "site/**/*.html", false},
		{"bare glob", "*.html", false},
		{"too deep traversal", "../../../**/*.html", true},
		{"blocked literal base", "/etc/**/*.conf", true},
		{"empty pattern", "", true},
		{"malformed pattern", "site/[*.html", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateGlobPattern(tt.pattern, base)
			if tt.wantErr {
				require.Error(t, err)
				var violation *sharederrors.PathViolationError
				assert.ErrorAs(t, err, &violation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyIntrospection(t *testing.T) {
	policy := NewPolicy()

	exts := policy.AllowedExtensions()
	assert.Contains(t, exts, ".html")
	assert.Contains(t, exts, ".js")
	assert.NotContains(t, exts, ".exe")

	descriptions := policy.BlockedPatternDescriptions()
	assert.NotEmpty(t, descriptions)
	assert.Contains(t, descriptions, "parent directory traversal")
}
