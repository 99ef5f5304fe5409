package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retries = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	cfg.Timeout = 5 * time.Second
	return cfg
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestTemplateFromFile(t *testing.T) {
	p := writeFile(t, "page.html", []byte("\xEF\xBB\xBF<p>{{ name }}</p>"))

	got, err := NewLoader(testConfig(), nil).Template(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "<p>{{ name }}</p>", got)
}

func TestTemplateRejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	p := writeFile(t, "image.html", png)

	_, err := NewLoader(testConfig(), nil).Template(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotText)
}

func TestTemplateTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBytes = 4
	p := writeFile(t, "big.html", []byte("0123456789"))

	_, err := NewLoader(cfg, nil).Template(context.Background(), p)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestTemplateMissingFile(t *testing.T) {
	_, err := NewLoader(testConfig(), nil).Template(context.Background(), filepath.Join(t.TempDir(), "none.html"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTemplateFromURLWithCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9 {{ x }}</p>"))
	}))
	defer srv.Close()

	got, err := NewLoader(testConfig(), nil).Template(context.Background(), srv.URL+"/page.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>café {{ x }}</p>", got)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, _, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchClientError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := NewFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL+"/missing")

	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
}

func TestFetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewFetcher(testConfig(), nil).Fetch(ctx, "http://127.0.0.1:1/")
	assert.Error(t, err)
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		want        string
	}{
		{name: "utf8", data: []byte("héllo"), want: "héllo"},
		{name: "empty", data: nil, want: ""},
		{name: "declared latin1", data: []byte("na\xefve"), contentType: "text/plain; charset=iso-8859-1", want: "naïve"},
		{name: "declared utf8", data: []byte("héllo"), contentType: "text/html; charset=utf-8", want: "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.data, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextFromFiles(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{name: "json", file: "vars.json", data: `{"title": "Hi", "user": {"name": "Ada"}}`},
		{name: "yaml", file: "vars.yaml", data: "title: Hi\nuser:\n  name: Ada\n"},
		{name: "yml", file: "vars.yml", data: "title: Hi\nuser:\n  name: Ada\n"},
		{name: "toml", file: "vars.toml", data: "title = \"Hi\"\n[user]\nname = \"Ada\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, tt.file, []byte(tt.data))

			vars, err := NewLoader(testConfig(), nil).Context(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, "Hi", vars["title"])

			user, ok := vars["user"].(map[string]interface{})
			require.True(t, ok, "user is %T", vars["user"])
			assert.Equal(t, "Ada", user["name"])
		})
	}
}

func TestContextFromURLContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte("count: 2\n"))
	}))
	defer srv.Close()

	vars, err := NewLoader(testConfig(), nil).Context(context.Background(), srv.URL+"/vars")
	require.NoError(t, err)
	assert.EqualValues(t, 2, vars["count"])
}

func TestParseContext(t *testing.T) {
	vars, err := ParseContext([]byte("  "), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, sandbox.Context{}, vars)

	_, err = ParseContext([]byte("{"), FormatJSON)
	assert.Error(t, err)

	_, err = ParseContext([]byte("[1, 2]"), FormatJSON)
	assert.Error(t, err)

	_, err = ParseContext([]byte("a=1"), "ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		ref         string
		contentType string
		want        string
	}{
		{ref: "vars.yml", want: FormatYAML},
		{ref: "VARS.YAML", want: FormatYAML},
		{ref: "vars.toml", want: FormatTOML},
		{ref: "vars.json", want: FormatJSON},
		{ref: "vars", want: FormatJSON},
		{ref: "https://example.com/ctx.toml?v=1", want: FormatTOML},
		{ref: "https://example.com/ctx", contentType: "application/x-yaml; charset=utf-8", want: FormatYAML},
		{ref: "https://example.com/ctx", contentType: "application/toml", want: FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFor(tt.ref, tt.contentType))
		})
	}
}

func TestIsText(t *testing.T) {
	assert.True(t, IsText([]byte("<html></html>")))
	assert.True(t, IsText([]byte(`{"a": 1}`)))
	assert.False(t, IsText([]byte{0x00, 0x01, 0x02, 0x03}))
}
