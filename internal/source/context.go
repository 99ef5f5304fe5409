package source

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

// Context file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Context loads a variable context from ref. The format comes from the
// file extension, then the Content-Type, and defaults to JSON.
func (l *Loader) Context(ctx context.Context, ref string) (sandbox.Context, error) {
	data, contentType, err := l.Read(ctx, ref)
	if err != nil {
		return nil, err
	}

	format := FormatFor(ref, contentType)
	vars, err := ParseContext(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return vars, nil
}

// FormatFor picks a context format for ref.
func FormatFor(ref, contentType string) string {
	name := ref
	if IsURL(ref) {
		if u, err := url.Parse(ref); err == nil {
			name = path.Base(u.Path)
		}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.Contains(mediaType, "yaml"):
			return FormatYAML
		case strings.Contains(mediaType, "toml"):
			return FormatTOML
		}
	}
	return FormatJSON
}

// ParseContext decodes a top-level mapping in the given format. Empty input
// yields an empty context.
func ParseContext(data []byte, format string) (sandbox.Context, error) {
	vars := sandbox.Context{}
	if len(bytes.TrimSpace(data)) == 0 {
		return vars, nil
	}

	var err error
	switch format {
	case FormatJSON:
		err = sonic.Unmarshal(data, &vars)
	case FormatYAML:
		err = yaml.Unmarshal(data, &vars)
	case FormatTOML:
		err = toml.Unmarshal(data, &vars)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s context: %w", format, err)
	}
	return vars, nil
}
