package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/htmlx/internal/mount"
	"github.com/GriffinCanCode/htmlx/internal/render"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

// Message is a frame sent by the client.
type Message struct {
	Type     string          `json:"type"`
	Template string          `json:"template,omitempty"`
	Document string          `json:"document,omitempty"`
	Target   string          `json:"target,omitempty"`
	Context  sandbox.Context `json:"context,omitempty"`
}

// Handler serves live render sessions. A session binds a template once and
// then re-renders it for every context the client sends.
type Handler struct {
	renderer *render.Renderer
	mounter  *mount.Mounter
	upgrader websocket.Upgrader
	logger   *zap.Logger

	maxMessageBytes int64
}

// NewHandler creates a live render handler. Upgrades are accepted from
// any origin when origins is empty or holds "*".
func NewHandler(renderer *render.Renderer, mounter *mount.Mounter, origins []string, maxMessageBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		renderer:        renderer,
		mounter:         mounter,
		upgrader:        websocket.Upgrader{CheckOrigin: checkOrigin(origins)},
		logger:          logger,
		maxMessageBytes: maxMessageBytes,
	}
}

func checkOrigin(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(allowed) == 0 || origin == "" || allowed[origin]
	}
}

// session is the template bound on one connection.
type session struct {
	template string
	bound    mount.RenderFunc
}

// HandleConnection upgrades the request and serves frames until the client
// goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	h.send(conn, gin.H{"type": "ready", "version": mount.Version})

	var s session
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "bind":
			h.handleBind(conn, &s, msg)
		case "render":
			h.handleRender(conn, &s, msg)
		case "ping":
			h.send(conn, gin.H{"type": "pong"})
		default:
			h.sendError(conn, errors.New("unknown message type "+msg.Type))
		}
	}
}

func (h *Handler) handleBind(conn *websocket.Conn, s *session, msg Message) {
	if msg.Document == "" {
		*s = session{template: msg.Template}
		h.send(conn, gin.H{"type": "bound"})
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.Document))
	if err != nil {
		h.sendError(conn, err)
		return
	}
	if _, err := mount.TemplateByID(doc, msg.Template); err != nil {
		h.sendError(conn, err)
		return
	}
	if _, err := mount.Target(doc, msg.Target); err != nil {
		h.sendError(conn, err)
		return
	}
	*s = session{bound: h.mounter.NewRenderer(doc, msg.Template, msg.Target)}
	h.send(conn, gin.H{"type": "bound"})
}

func (h *Handler) handleRender(conn *websocket.Conn, s *session, msg Message) {
	vars := msg.Context
	if vars == nil {
		vars = sandbox.Context{}
	}

	if s.bound == nil {
		html, err := h.renderer.Render(s.template, vars)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.send(conn, gin.H{"type": "rendered", "html": html})
		return
	}

	target, err := s.bound(vars)
	if err != nil {
		h.sendError(conn, err)
		return
	}
	html, err := target.Html()
	if err != nil {
		h.sendError(conn, err)
		return
	}
	h.send(conn, gin.H{"type": "rendered", "html": html})
}

func (h *Handler) send(conn *websocket.Conn, data gin.H) {
	data["timestamp"] = time.Now().Unix()
	if err := conn.WriteJSON(data); err != nil {
		h.logger.Debug("WebSocket write error", zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, err error) {
	frame := gin.H{"type": "error", "message": err.Error()}
	if kind := sandbox.Kind(err); kind != "" {
		frame["kind"] = kind
	}
	h.send(conn, frame)
}
