package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/stockwatch/internal/app"
	"github.com/rickgao/stockwatch/internal/database"
	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/stream"
)

// Config configures the HTTP server.
type Config struct {
	Addr string
	// Mode is the gin mode: release, debug or test.
	Mode string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Deps are the components the handlers call. Only Service is required.
type Deps struct {
	Service   *app.Service
	Publisher *stream.Publisher
	Stream    *stream.Server
	History   database.HistoryStore
	Palette   display.Palette

	// BreakerState reports the upstream circuit breaker for /health.
	BreakerState func() string
}

// Server is the gin HTTP front end.
type Server struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine

	// baseCtx bounds websocket connections; set by Run.
	baseCtx context.Context
}

// New builds the router. Zero Config fields take their defaults.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if deps.Palette == (display.Palette{}) {
		deps.Palette = display.DefaultPalette()
	}

	gin.SetMode(cfg.Mode)
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.With("component", "server"),
		baseCtx: context.Background(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		RequestID(),
		AccessLog(s.logger),
		Recover(s.logger),
	)

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.deps.Stream != nil {
		r.GET("/ws", s.serveWS)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/groups", s.listGroups)
	v1.POST("/groups", s.addGroup)
	v1.DELETE("/groups/:group", s.removeGroup)
	v1.GET("/groups/:group/rows", s.groupRows)
	v1.POST("/groups/:group/symbols", s.addSymbol)
	v1.DELETE("/groups/:group/symbols/:symbol", s.removeSymbol)
	v1.GET("/klines/:symbol", s.klines)
	v1.GET("/history/:symbol", s.history)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:           s.cfg.Addr,
		Handler:        s.engine,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) serveWS(c *gin.Context) {
	// The request context ends when this handler returns; the
	// connection's pumps outlive it.
	s.deps.Stream.ServeWS(s.baseCtx, c.Writer, c.Request)
}

// refresh republishes a group's rows after an edit.
func (s *Server) refresh(group string) {
	if s.deps.Publisher != nil {
		s.deps.Publisher.Refresh(group)
	}
}
