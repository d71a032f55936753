package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmorph/docmorph/internal/document"
	sharederrors "github.com/docmorph/docmorph/pkg/shared/errors"
)

const inputPage = `<html><head><title>Original</title></head><body></body></html>`

// markerModule appends its letter to the body's data-seq attribute, so
// tests can observe the execution order and the cumulative state.
func markerModule(letter string) string {
	return `
module.exports = {
  name: "marker-` + letter + `",
  transform: function (ctx) {
    var body = ctx.document.find("body");
    body.setAttr("data-seq", body.attr("data-seq") + "` + letter + `");
  }
};
`
}

func writePipelineModule(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newContext(t *testing.T) *Context {
	t.Helper()
	doc, err := document.Parse(inputPage)
	require.NoError(t, err)
	return &Context{Document: doc}
}

func TestRunSetsTitle(t *testing.T) {
	dir := t.TempDir()
	path := writePipelineModule(t, dir, "title.js", `
module.exports = {
  name: "set-title",
  transform: function (ctx) {
    ctx.document.find("title").setText("Updated");
  }
};
`)

	ctx := newContext(t)
	p := New(hclog.NewNullLogger(), true)
	require.NoError(t, p.Run(ctx, []string{path}))

	assert.Equal(t, "Updated", ctx.Document.Find("title").Text())
}

func TestRunAppliesModulesInListOrder(t *testing.T) {
	dir := t.TempDir()
	pathA := writePipelineModule(t, dir, "30-a.js", markerModule("A"))
	pathB := writePipelineModule(t, dir, "10-b.js", markerModule("B"))
	pathC := writePipelineModule(t, dir, "20-c.js", markerModule("C"))

	// List order wins over any filename order.
	ctx := newContext(t)
	p := New(hclog.NewNullLogger(), false)
	require.NoError(t, p.Run(ctx, []string{pathA, pathB, pathC}))

	assert.Equal(t, "ABC", ctx.Document.Find("body").Attr("data-seq"))
}

func TestRunRejectsDangerousModuleBeforeAnyApplies(t *testing.T) {
	dir := t.TempDir()
	good := writePipelineModule(t, dir, "good.js", markerModule("G"))
	bad := writePipelineModule(t, dir, "bad.js", `
module.exports = {
  name: "bad",
  transform: function (ctx) {
    eval("ctx");
  }
};
`)

	ctx := newContext(t)
	p := New(hclog.NewNullLogger(), false)
	err := p.Run(ctx, []string{good, bad})
	require.Error(t, err)

	var rejection *sharederrors.SecurityRejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Contains(t, err.Error(), "eval")

	// The whole batch is gated before anything touches the document.
	assert.False(t, ctx.Document.Find("body").HasAttr("data-seq"))
}

func TestRunDangerousModuleExecutesWhenGateSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writePipelineModule(t, dir, "bad.js", `
module.exports = {
  name: "bad",
  transform: function (ctx) {
    eval("1");
    ctx.document.find("title").setText("Updated");
  }
};
`)

	ctx := newContext(t)
	p := New(hclog.NewNullLogger(), true)
	require.NoError(t, p.Run(ctx, []string{path}))
	assert.Equal(t, "Updated", ctx.Document.Find("title").Text())
}

func TestRunAbortsOnThrowingTransform(t *testing.T) {
	dir := t.TempDir()
	boom := writePipelineModule(t, dir, "boom.js", `
module.exports = {
  name: "boom",
  transform: function (ctx) {
    throw new Error("broken transform");
  }
};
`)
	after := writePipelineModule(t, dir, "after.js", markerModule("Z"))

	ctx := newContext(t)
	p := New(hclog.NewNullLogger(), true)
	err := p.Run(ctx, []string{boom, after})
	require.Error(t, err)

	var transformErr *sharederrors.TransformError
	require.ErrorAs(t, err, &transformErr)
	assert.Equal(t, "boom", transformErr.Module)
	assert.Contains(t, err.Error(), "broken transform")

	// No partial continuation after the failure.
	assert.False(t, ctx.Document.Find("body").HasAttr("data-seq"))
}

func TestRunContextHelpers(t *testing.T) {
	dir := t.TempDir()
	path := writePipelineModule(t, dir, "helpers.js", `
module.exports = {
  name: "helpers",
  transform: function (ctx) {
    var src = ctx.document.find("#old");
    var dst = ctx.document.find("#new");
    ctx.copyAttributes(src, dst);
    ctx.migrateChildren(src, dst);
    ctx.replaceElement(src, "<hr/>");
  }
};
`)

	doc, err := document.Parse(`<html><body>
  <div id="old" class="panel"><p>kept</p></div>
  <section id="new"></section>
</body></html>`)
	require.NoError(t, err)

	ctx := &Context{Document: doc}
	p := New(hclog.NewNullLogger(), true)
	require.NoError(t, p.Run(ctx, []string{path}))

	moved := doc.Find("section")
	assert.Equal(t, "panel", moved.Attr("class"))
	assert.Equal(t, "kept", moved.Text())
	assert.Equal(t, 1, doc.Find("hr").Length())
	assert.Equal(t, 0, doc.Find("div#old").Length())
}

func TestRunExposesModuleConfig(t *testing.T) {
	dir := t.TempDir()
	path := writePipelineModule(t, dir, "config.js", `
module.exports = {
  name: "config-reader",
  transform: function (ctx) {
    ctx.document.find("title").setText(ctx.config.title);
  }
};
`)

	ctx := newContext(t)
	ctx.Config = map[string]interface{}{"title": "From Config"}
	p := New(hclog.NewNullLogger(), false)
	require.NoError(t, p.Run(ctx, []string{path}))

	assert.Equal(t, "From Config", ctx.Document.Find("title").Text())
}

func TestRunReferenceDocumentIsReadable(t *testing.T) {
	dir := t.TempDir()
	path := writePipelineModule(t, dir, "ref.js", `
module.exports = {
  name: "ref-copy",
  transform: function (ctx) {
    ctx.document.find("title").setText(ctx.reference.find("title").text());
  }
};
`)

	reference, err := document.Parse(`<html><head><title>Template Title</title></head></html>`)
	require.NoError(t, err)

	ctx := newContext(t)
	ctx.Reference = reference
	p := New(hclog.NewNullLogger(), false)
	require.NoError(t, p.Run(ctx, []string{path}))

	assert.Equal(t, "Template Title", ctx.Document.Find("title").Text())
}
