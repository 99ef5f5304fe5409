package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

// Marker patterns. Triple braces are matched lazily across lines; double
// braces may not contain a brace, so `{{ {a: 1} }}` is left as text.
var (
	tripleBrace = regexp2.MustCompile(`\{\{\{([\s\S]+?)\}\}\}`, regexp2.ECMAScript)
	doubleBrace = regexp2.MustCompile(`\{\{([^{}]+)\}\}`, regexp2.ECMAScript)
)

// Metrics receives one observation per Render call.
type Metrics interface {
	RecordRender(outcome string, duration time.Duration)
}

// Renderer substitutes {{{ expr }}} and {{ expr }} markers with evaluated
// expression values.
type Renderer struct {
	evaluator *sandbox.Evaluator
	logger    *zap.Logger
	metrics   Metrics
}

// New creates a renderer backed by evaluator. A nil evaluator gets the
// sandbox defaults.
func New(evaluator *sandbox.Evaluator) *Renderer {
	if evaluator == nil {
		evaluator = sandbox.New(sandbox.DefaultConfig())
	}
	return &Renderer{
		evaluator: evaluator,
		logger:    zap.NewNop(),
	}
}

// WithLogger attaches a logger.
func (r *Renderer) WithLogger(logger *zap.Logger) *Renderer {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithMetrics attaches a render metrics sink.
func (r *Renderer) WithMetrics(metrics Metrics) *Renderer {
	r.metrics = metrics
	return r
}

// Evaluator returns the evaluator used for markers.
func (r *Renderer) Evaluator() *sandbox.Evaluator {
	return r.evaluator
}

// Render runs two passes over template. Raw markers are evaluated first and
// their values inserted unescaped; escaped markers are then evaluated in the
// remaining template text. Values produced by the raw pass are never scanned
// for markers. A marker that fails aborts the render.
func (r *Renderer) Render(template string, vars sandbox.Context) (out string, err error) {
	start := time.Now()
	defer func() {
		r.observe(start, err)
	}()

	if vars == nil {
		vars = sandbox.Context{}
	}

	segments, err := r.rawPass(template, vars)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.raw {
			b.WriteString(seg.text)
			continue
		}
		text, err := r.escapedPass(seg.text, vars)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// segment is a run of template text, or the inert value of a raw marker.
type segment struct {
	text string
	raw  bool
}

func (r *Renderer) rawPass(template string, vars sandbox.Context) ([]segment, error) {
	m, err := tripleBrace.FindStringMatch(template)
	if err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	if m == nil {
		return []segment{{text: template}}, nil
	}

	// regexp2 reports positions in runes.
	runes := []rune(template)
	var (
		segments []segment
		last     int
	)
	for m != nil {
		segments = append(segments, segment{text: string(runes[last:m.Index])})

		value, err := r.evaluate(m, vars)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment{text: value, raw: true})
		last = m.Index + m.Length

		if m, err = tripleBrace.FindNextMatch(m); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
	}
	return append(segments, segment{text: string(runes[last:])}), nil
}

func (r *Renderer) escapedPass(text string, vars sandbox.Context) (string, error) {
	var failed error

	out, err := doubleBrace.ReplaceFunc(text, func(m regexp2.Match) string {
		if failed != nil {
			return m.String()
		}
		value, err := r.evaluate(&m, vars)
		if err != nil {
			failed = err
			return m.String()
		}
		return EscapeHTML(value)
	}, -1, -1)
	if err != nil {
		return "", fmt.Errorf("failed to scan template: %w", err)
	}
	if failed != nil {
		return "", failed
	}
	return out, nil
}

// evaluate returns the string value of the marker's expression, or "" for
// null and undefined.
func (r *Renderer) evaluate(m *regexp2.Match, vars sandbox.Context) (string, error) {
	s, ok, err := r.evaluator.EvaluateString(m.GroupByNumber(1).String(), vars)
	if err != nil {
		return "", &MarkerError{Marker: m.String(), Err: err}
	}
	if !ok {
		return "", nil
	}
	return s, nil
}

func (r *Renderer) observe(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		if outcome = sandbox.Kind(err); outcome == "" {
			outcome = "error"
		}
		r.logger.Debug("Render failed", zap.String("kind", outcome), zap.Error(err))
	}
	if r.metrics != nil {
		r.metrics.RecordRender(outcome, time.Since(start))
	}
}
