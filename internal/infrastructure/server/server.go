package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	handlers "github.com/GriffinCanCode/htmlx/internal/api/http"
	"github.com/GriffinCanCode/htmlx/internal/api/middleware"
	"github.com/GriffinCanCode/htmlx/internal/api/ws"
	"github.com/GriffinCanCode/htmlx/internal/infrastructure/config"
	"github.com/GriffinCanCode/htmlx/internal/infrastructure/logging"
	"github.com/GriffinCanCode/htmlx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/htmlx/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/htmlx/internal/mount"
	"github.com/GriffinCanCode/htmlx/internal/render"
	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

// bodyOverhead is the room left in a request body for the context and
// JSON framing on top of the template limit.
const bodyOverhead = 1 << 20

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	handler http.Handler
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewServer wires the rendering pipeline behind a gin router. A nil logger
// is chosen from the logging configuration.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing htmlx server",
		zap.String("addr", cfg.Server.Address()),
		zap.Duration("sandbox_timeout", cfg.Sandbox.Timeout),
		zap.Bool("sanitize", cfg.Render.Sanitize),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("htmlx", logger.Named("trace").Logger)

	evaluator := sandbox.New(sandbox.Config{
		Timeout:          cfg.Sandbox.Timeout,
		MaxCallStackSize: cfg.Sandbox.MaxCallStackSize,
	}).WithLogger(logger.Named("sandbox").Logger).WithMetrics(metrics)

	renderer := render.New(evaluator).
		WithLogger(logger.Named("render").Logger).
		WithMetrics(metrics)

	mounter := mount.New(renderer).WithLogger(logger.Named("mount").Logger)
	if cfg.Render.Sanitize {
		mounter = mounter.WithPolicy(bluemonday.UGCPolicy())
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger.Logger))
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.Logger(logger.Named("http").Logger))
	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.Server.CORSOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	h := handlers.NewHandlers(renderer, mounter, metrics, tracer, cfg.Render.MaxTemplateBytes, logger.Named("api").Logger)

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/v1")
	v1.GET("/stats", h.Stats)

	limited := v1.Group("", handlers.LimitBody(cfg.Render.MaxTemplateBytes+bodyOverhead))
	limited.POST("/render", h.Render)
	limited.POST("/evaluate", h.Evaluate)
	limited.POST("/escape", h.Escape)
	limited.POST("/mount", h.Mount)

	live := ws.NewHandler(renderer, mounter, cfg.Server.CORSOrigins, cfg.Render.MaxTemplateBytes+bodyOverhead, logger.Named("ws").Logger)
	v1.GET("/live", live.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		handler: compress(router),
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// compress gzips responses except WebSocket upgrades, which need the raw
// connection.
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root handler, gzip included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...", zap.Duration("timeout", s.config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Close flushes spans and logs.
func (s *Server) Close() error {
	s.tracer.Close()
	return s.logger.Sync()
}
