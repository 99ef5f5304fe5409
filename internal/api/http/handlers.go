package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/htmlx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/htmlx/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/htmlx/internal/mount"
	"github.com/GriffinCanCode/htmlx/internal/render"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "htmlx"

// Handlers contains all HTTP handlers
type Handlers struct {
	renderer *render.Renderer
	mounter  *mount.Mounter
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger

	maxTemplateBytes int64
}

// NewHandlers creates a new handler set. metrics and tracer may be nil.
func NewHandlers(
	renderer *render.Renderer,
	mounter *mount.Mounter,
	metrics *monitoring.Metrics,
	tracer *tracing.Tracer,
	maxTemplateBytes int64,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		renderer:         renderer,
		mounter:          mounter,
		metrics:          metrics,
		tracer:           tracer,
		logger:           logger,
		maxTemplateBytes: maxTemplateBytes,
	}
}

// Root reports the service name and version.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": mount.Version,
	})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"denied_inputs": len(sandbox.DeniedIdentifiers()),
	})
}

// Stats returns running totals in JSON form.
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics are disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

type renderRequest struct {
	Template string          `json:"template"`
	Context  sandbox.Context `json:"context"`
}

// Render expands every marker in a template. Responses carry an ETag of
// the rendered HTML and honour If-None-Match.
func (h *Handlers) Render(c *gin.Context) {
	var req renderRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.checkTemplateSize(c, len(req.Template)) {
		return
	}

	done := h.span(c, "render")
	html, err := h.renderer.Render(req.Template, contextOrEmpty(req.Context))
	done(err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	tag := etag(html)
	c.Header("ETag", tag)
	if etagMatches(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

type evaluateRequest struct {
	Expression string          `json:"expression"`
	Context    sandbox.Context `json:"context"`
}

// Evaluate returns the value of a single expression.
func (h *Handlers) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if !h.bind(c, &req) {
		return
	}

	done := h.span(c, "evaluate")
	value, err := h.renderer.Evaluator().Evaluate(req.Expression, contextOrEmpty(req.Context))
	done(err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	body, err := sonic.Marshal(gin.H{"value": value})
	if err != nil {
		// Values such as functions have no JSON form; fall back to text.
		body, err = sonic.Marshal(gin.H{"value": fmt.Sprint(value)})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

type escapeRequest struct {
	Value interface{} `json:"value"`
}

// Escape HTML-escapes a value after string coercion.
func (h *Handlers) Escape(c *gin.Context) {
	var req escapeRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"escaped": render.EscapeHTML(req.Value)})
}

type mountRequest struct {
	Document string          `json:"document" binding:"required"`
	Template string          `json:"template" binding:"required"`
	Target   string          `json:"target" binding:"required"`
	Context  sandbox.Context `json:"context"`
}

// Mount renders a template element from a document into a target element
// and returns the updated document.
func (h *Handlers) Mount(c *gin.Context) {
	var req mountRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.checkTemplateSize(c, len(req.Document)) {
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.Document))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document: " + err.Error()})
		return
	}

	done := h.span(c, "mount")
	target, err := h.mounter.Mount(doc, req.Template, req.Target, contextOrEmpty(req.Context))
	done(err)
	if err != nil {
		h.renderError(c, err)
		return
	}

	inner, err := target.Html()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	html, err := doc.Html()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html, "target": inner})
}

func (h *Handlers) checkTemplateSize(c *gin.Context, size int) bool {
	if h.maxTemplateBytes > 0 && int64(size) > h.maxTemplateBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("template exceeds %d bytes", h.maxTemplateBytes),
		})
		return false
	}
	return true
}

// span opens a child span of the request span and returns its closer.
func (h *Handlers) span(c *gin.Context, name string) func(error) {
	if h.tracer == nil {
		return func(error) {}
	}
	span, _ := h.tracer.StartSpan(c.Request.Context(), name)
	return func(err error) {
		if err != nil {
			span.SetError(err)
			if kind := sandbox.Kind(err); kind != "" {
				span.SetTag("error.kind", kind)
			}
		}
		span.Finish()
		h.tracer.Submit(span)
	}
}

func contextOrEmpty(vars sandbox.Context) sandbox.Context {
	if vars == nil {
		return sandbox.Context{}
	}
	return vars
}
