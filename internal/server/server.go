// Package server exposes card rendering over HTTP.
//
//	POST /v1/cards   JSON card request -> image/png
//	GET  /healthz    liveness
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tools.zach/dev/xpcard/internal/card"
)

// Renderer renders one card. [card.Renderer] satisfies it.
type Renderer interface {
	Render(ctx context.Context, req card.CardRequest) ([]byte, error)
}

// Options configures a [Server].
type Options struct {
	// AllowedOrigins feeds CORS. "*" allows any origin; empty disables CORS.
	AllowedOrigins []string
	// MaxBadges caps len(badges). Zero means no cap.
	MaxBadges int
	// RenderTimeout bounds one render including the avatar fetch. Zero
	// means 30 seconds.
	RenderTimeout time.Duration
	// MaxBodyBytes caps the request body. Zero means 1 MiB.
	MaxBodyBytes int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

const (
	defaultRenderTimeout = 30 * time.Second
	defaultMaxBodyBytes  = 1 << 20
	shutdownTimeout      = 10 * time.Second
)

// Server routes HTTP requests to a [Renderer].
type Server struct {
	engine   *gin.Engine
	renderer Renderer
	opts     Options
	log      *slog.Logger
}

// New builds the router. Callers choose the gin mode before calling New.
func New(r Renderer, opts Options) *Server {
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = defaultRenderTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	registerJSONFieldNames()

	s := &Server{renderer: r, opts: opts, log: log}

	router := gin.New()
	router.Use(requestID(), s.accessLog(), gin.Recovery())
	if c, ok := corsConfig(opts.AllowedOrigins); ok {
		router.Use(cors.New(c))
	}

	router.GET("/healthz", health)
	v1 := router.Group("/v1")
	{
		v1.POST("/cards", s.renderCard)
	}

	s.engine = router
	return s
}

// Handler returns the router for use with httptest or a custom server.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully, waiting
// up to ten seconds for in-flight renders.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// corsConfig builds the CORS policy, reporting false when no origin is
// allowed.
func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c, true
}
