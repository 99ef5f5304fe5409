package mount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/htmlx/internal/render"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

// Version of the template engine.
const Version = "1.0.0"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTargetNotFound   = errors.New("target element not found")
	ErrInvalidRef       = errors.New("invalid element reference")
)

// RenderFunc renders a bound template into its bound target.
type RenderFunc func(vars sandbox.Context) (*goquery.Selection, error)

// Mounter renders templates found in a document into target elements of the
// same document.
type Mounter struct {
	renderer *render.Renderer
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

// New creates a mounter. A nil renderer gets the defaults.
func New(renderer *render.Renderer) *Mounter {
	if renderer == nil {
		renderer = render.New(nil)
	}
	return &Mounter{
		renderer: renderer,
		logger:   zap.NewNop(),
	}
}

// WithPolicy sanitises rendered HTML with policy before it is inserted.
func (m *Mounter) WithPolicy(policy *bluemonday.Policy) *Mounter {
	m.policy = policy
	return m
}

// WithLogger attaches a logger.
func (m *Mounter) WithLogger(logger *zap.Logger) *Mounter {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Mount renders the inner HTML of the element with id templateRef and
// replaces the inner HTML of the first element matching targetRef with the
// result. targetRef is a CSS selector, or an XPath expression when it starts
// with "/" or "(".
func (m *Mounter) Mount(doc *goquery.Document, templateRef, targetRef string, vars sandbox.Context) (*goquery.Selection, error) {
	tmpl, err := TemplateByID(doc, templateRef)
	if err != nil {
		return nil, err
	}
	target, err := Target(doc, targetRef)
	if err != nil {
		return nil, err
	}
	return m.MountSelection(tmpl, target, vars)
}

// MountSelection is Mount with both elements already resolved. Only the
// first element of each selection is used.
func (m *Mounter) MountSelection(tmpl, target *goquery.Selection, vars sandbox.Context) (*goquery.Selection, error) {
	if tmpl == nil || tmpl.Length() == 0 {
		return nil, fmt.Errorf("%w: provide a template id or element", ErrInvalidRef)
	}
	if target == nil || target.Length() == 0 {
		return nil, fmt.Errorf("%w: provide a selector or element", ErrInvalidRef)
	}
	target = target.First()

	template, err := tmpl.First().Html()
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	html, err := m.renderer.Render(template, vars)
	if err != nil {
		return nil, err
	}
	if m.policy != nil {
		html = m.policy.Sanitize(html)
	}

	target.SetHtml(html)
	m.logger.Debug("Mounted template",
		zap.String("target", goquery.NodeName(target)),
		zap.Int("bytes", len(html)),
	)
	return target, nil
}

// NewRenderer binds a template and target so the result can be re-rendered
// with fresh variables.
func (m *Mounter) NewRenderer(doc *goquery.Document, templateRef, targetRef string) RenderFunc {
	return func(vars sandbox.Context) (*goquery.Selection, error) {
		return m.Mount(doc, templateRef, targetRef, vars)
	}
}

// TemplateByID finds the element whose id attribute equals id.
func TemplateByID(doc *goquery.Document, id string) (*goquery.Selection, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty template id", ErrInvalidRef)
	}
	sel := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	})
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: template with id %q was not found", ErrTemplateNotFound, id)
	}
	return sel.First(), nil
}

// Target resolves a CSS selector or XPath expression to its first match.
func Target(doc *goquery.Document, ref string) (*goquery.Selection, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty target selector", ErrInvalidRef)
	}

	var sel *goquery.Selection
	if isXPath(ref) {
		node, err := htmlquery.Query(doc.Nodes[0], ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRef, err)
		}
		if node == nil {
			return nil, fmt.Errorf("%w: target element %q was not found in the document", ErrTargetNotFound, ref)
		}
		sel = doc.FindNodes(node)
	} else {
		matcher, err := cascadia.Compile(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRef, err)
		}
		sel = doc.FindMatcher(matcher)
	}

	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: target element %q was not found in the document", ErrTargetNotFound, ref)
	}
	return sel.First(), nil
}

func isXPath(ref string) bool {
	return strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "(")
}
