package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmorph/docmorph/internal/pathguard"
	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

func TestWriteResultRejectsBlockedOutputPath(t *testing.T) {
	dir := t.TempDir()
	guard := pathguard.New(pathguard.NewPolicy())

	blocked := filepath.Join(dir, ".ssh", "authorized_keys.txt")
	require.True(t, guard.IsBlocked(blocked))

	opts := &RunOptionsTransform{Output: blocked}
	err := writeResult(hclog.NewNullLogger(), guard, opts, filepath.Join(dir, "page.html"), "<html></html>", false)
	require.Error(t, err)

	var violation *sharederrors.PathViolationError
	assert.ErrorAs(t, err, &violation)

	_, statErr := os.Stat(blocked)
	assert.True(t, os.IsNotExist(statErr), "nothing may be written through a blocked path")
}

func TestWriteResultRejectsTraversalOutputPath(t *testing.T) {
	guard := pathguard.New(pathguard.NewPolicy())

	opts := &RunOptionsTransform{Output: filepath.Join("..", "escape.html")}
	err := writeResult(hclog.NewNullLogger(), guard, opts, "page.html", "<html></html>", false)
	require.Error(t, err)

	var violation *sharederrors.PathViolationError
	assert.ErrorAs(t, err, &violation)
}

func TestWriteResultWritesToValidatedPath(t *testing.T) {
	dir := t.TempDir()
	guard := pathguard.New(pathguard.NewPolicy())

	out := filepath.Join(dir, "out", "page.html")
	opts := &RunOptionsTransform{Output: out}
	require.NoError(t, writeResult(hclog.NewNullLogger(), guard, opts, filepath.Join(dir, "page.html"), "<html></html>", false))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestWriteResultMultiNamesByInputBase(t *testing.T) {
	dir := t.TempDir()
	guard := pathguard.New(pathguard.NewPolicy())
	outDir := filepath.Join(dir, "dist")

	opts := &RunOptionsTransform{Output: outDir}
	require.NoError(t, writeResult(hclog.NewNullLogger(), guard, opts, filepath.Join(dir, "a.html"), "<p>a</p>", true))
	require.NoError(t, writeResult(hclog.NewNullLogger(), guard, opts, filepath.Join(dir, "b.html"), "<p>b</p>", true))

	data, err := os.ReadFile(filepath.Join(outDir, "a.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", string(data))
}

func TestEnsureDistinctOutputNames(t *testing.T) {
	assert.NoError(t, ensureDistinctOutputNames(nil))
	assert.NoError(t, ensureDistinctOutputNames([]string{"a/page.html"}))
	assert.NoError(t, ensureDistinctOutputNames([]string{"a/page.html", "b/other.html"}))

	err := ensureDistinctOutputNames([]string{"a/page.html", "b/page.html"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page.html")
	assert.Contains(t, err.Error(), `"a/page.html"`)
	assert.Contains(t, err.Error(), `"b/page.html"`)
}
