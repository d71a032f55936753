package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

const riskyModule = `
module.exports = {
  name: "risky",
  transform: function (ctx) {
    eval("ctx");
  }
};
`

func writeModule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "safe.js", cleanModule)
	writeModule(t, dir, "risky.js", riskyModule)
	writeModule(t, dir, "notes.txt", "not a module")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.js"), 0755))

	results, err := AnalyzeDir(dir)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.True(t, results["safe.js"].Safe)
	assert.False(t, results["risky.js"].Safe)
	assert.Equal(t, 5.0, results["risky.js"].RiskScore)
}

func TestAnalyzeDirUnreadableFileGetsWorstCase(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "safe.js", cleanModule)
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, "broken.js")))

	results, err := AnalyzeDir(dir)
	require.NoError(t, err)

	broken, ok := results["broken.js"]
	require.True(t, ok)
	assert.False(t, broken.Safe)
	assert.Equal(t, 10.0, broken.RiskScore)
	require.NotEmpty(t, broken.Warnings)
	assert.Contains(t, broken.Warnings[0], "could not be read")
}

func TestAnalyzeDirMissingDirectoryAborts(t *testing.T) {
	_, err := AnalyzeDir(filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	var missing *sharederrors.MissingResourceError
	assert.ErrorAs(t, err, &missing)
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "safe.js", cleanModule)
	writeModule(t, dir, "risky.js", riskyModule)

	results, err := AnalyzeDir(dir)
	require.NoError(t, err)

	summary := Summarize(results)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Safe)
	assert.Equal(t, 1, summary.Unsafe)
	assert.Equal(t, 2.5, summary.AverageRiskScore)
	assert.Equal(t, "risky.js", summary.HighestRiskFile)
	assert.Equal(t, 5.0, summary.HighestRiskScore)
}

func TestSummarizeTieKeepsFirstEncountered(t *testing.T) {
	results := map[string]SecurityAnalysis{
		"b.js": {Safe: true, RiskScore: 2},
		"a.js": {Safe: true, RiskScore: 2},
	}

	summary := Summarize(results)
	assert.Equal(t, "a.js", summary.HighestRiskFile)
	assert.Equal(t, 2.0, summary.HighestRiskScore)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(map[string]SecurityAnalysis{})

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0.0, summary.AverageRiskScore)
	assert.Equal(t, "", summary.HighestRiskFile)
}
