package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

type exitCalled int

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	exit := func(code int) { panic(exitCalled(code)) }
	err := Run(context.Background(), &stdout, &stderr, exit, args...)
	return stdout.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	ctxFile := writeTemp(t, dir, "ctx.yaml", "user:\n  name: ada\nitems: [1, 2, 3]\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "number", args: []string{"eval", "1 + 2"}, want: "3\n"},
		{name: "string", args: []string{"eval", "'a' + 'b'"}, want: "\"ab\"\n"},
		{name: "null", args: []string{"eval", "null"}, want: "null\n"},
		{name: "context", args: []string{"eval", "user.name.toUpperCase()", "-c", ctxFile}, want: "\"ADA\"\n"},
		{name: "array", args: []string{"eval", "items.length", "--context", ctxFile}, want: "3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	_, err := run(t, "eval", "window.location")
	require.Error(t, err)
	assert.Equal(t, sandbox.KindUnsafe, sandbox.Kind(err))

	_, err = run(t, "eval", "1", "-c", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRenderSingle(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemp(t, dir, "page.html", "<h1>{{ title }}</h1>{{{ body }}}")
	ctxFile := writeTemp(t, dir, "ctx.json", `{"title": "<Hi>", "body": "<p>x</p>"}`)

	out, err := run(t, "render", tmpl, "-c", ctxFile)
	require.NoError(t, err)
	assert.Equal(t, "<h1>&lt;Hi&gt;</h1><p>x</p>", out)

	outDir := filepath.Join(dir, "dist")
	_, err = run(t, "render", tmpl, "-c", ctxFile, "--out", outDir)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(outDir, "page.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>&lt;Hi&gt;</h1><p>x</p>", string(got))
}

func TestRenderGlob(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTemp(t, src, "index.html", "<p>{{ n }}</p>")
	writeTemp(t, src, "nested/deep/item.html", "<i>{{ n * 2 }}</i>")
	writeTemp(t, src, "notes.txt", "{{ skipped }}")
	ctxFile := writeTemp(t, dir, "ctx.toml", "n = 21\n")
	outDir := filepath.Join(dir, "out")

	_, err := run(t, "render", src, "--glob", "**/*.html", "--out", outDir, "-c", ctxFile)
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>21</p>", string(index))

	item, err := os.ReadFile(filepath.Join(outDir, "nested", "deep", "item.html"))
	require.NoError(t, err)
	assert.Equal(t, "<i>42</i>", string(item))

	assert.NoFileExists(t, filepath.Join(outDir, "notes.txt"))
}

func TestRenderGlobErrors(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.html", "x")

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{name: "no out", args: []string{"render", dir, "--glob", "*.html"}, msg: "--out"},
		{name: "bad pattern", args: []string{"render", dir, "--glob", "[", "--out", t.TempDir()}, msg: "invalid glob"},
		{name: "no matches", args: []string{"render", dir, "--glob", "*.md", "--out", t.TempDir()}, msg: "no templates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMount(t *testing.T) {
	dir := t.TempDir()
	doc := writeTemp(t, dir, "index.html",
		`<html><body><template id="card"><b>{{ name }}</b></template><main></main></body></html>`)
	ctxFile := writeTemp(t, dir, "ctx.json", `{"name": "Ada"}`)

	out, err := run(t, "mount", doc, "--template", "card", "--target", "main", "-c", ctxFile)
	require.NoError(t, err)
	assert.Contains(t, out, "<main><b>Ada</b></main>")

	_, err = run(t, "mount", doc, "--template", "nope", "--target", "main", "-c", ctxFile)
	assert.Error(t, err)
}

func TestVersionExits(t *testing.T) {
	assert.PanicsWithValue(t, exitCalled(0), func() {
		_, _ = run(t, "--version")
	})
}

func TestServeConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HOST", "127.0.0.1")

	cfg, err := serveConfig(&Serve{Port: "9100"}, &CLI{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Address())
}
