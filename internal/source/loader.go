package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Loader reads templates and variable contexts from local paths or
// http(s) URLs.
type Loader struct {
	fetcher *Fetcher
	config  Config
	logger  *zap.Logger
}

// NewLoader creates a loader. logger may be nil.
func NewLoader(config Config, logger *zap.Logger) *Loader {
	config = config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fetcher: NewFetcher(config, logger),
		config:  config,
		logger:  logger,
	}
}

// IsURL reports whether ref names an http or https resource.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Read returns the raw bytes of ref and the Content-Type reported by the
// server, if any.
func (l *Loader) Read(ctx context.Context, ref string) ([]byte, string, error) {
	if IsURL(ref) {
		return l.fetcher.Fetch(ctx, ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", ref, err)
	}
	defer f.Close()

	data, err := readLimited(f, l.config.MaxBytes)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, "", nil
}

// Template loads ref as UTF-8 text. Binary documents are rejected with
// ErrNotText.
func (l *Loader) Template(ctx context.Context, ref string) (string, error) {
	data, contentType, err := l.Read(ctx, ref)
	if err != nil {
		return "", err
	}
	text, err := DecodeText(data, contentType)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ref, err)
	}
	l.logger.Debug("Loaded template", zap.String("ref", ref), zap.Int("bytes", len(text)))
	return text, nil
}

// DecodeText checks that data is text and converts it to UTF-8. The charset
// from contentType wins over detection when present.
func DecodeText(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if !IsText(data) {
		return "", fmt.Errorf("%w: detected %s", ErrNotText, mimetype.Detect(data).String())
	}
	if utf8.Valid(data) && !strings.Contains(strings.ToLower(contentType), "charset=") {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	if !strings.Contains(strings.ToLower(contentType), "charset=") {
		contentType = "text/plain; charset=" + DetectCharset(data)
	}
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(out), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsText reports whether the detected MIME type of data descends from
// text/plain.
func IsText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectCharset guesses the character set of data, falling back to utf-8.
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
