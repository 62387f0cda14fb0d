package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sjsage522/profilewatch/logger"
	"sjsage522/profilewatch/services/cache"
	"sjsage522/profilewatch/services/monitor"
)

const (
	serviceName     = "profilewatch"
	shutdownTimeout = 30 * time.Second
)

//go:embed web
var webAssets embed.FS

// BatchRunner runs one monitoring batch
type BatchRunner interface {
	MonitorBatch(ctx context.Context, identifiers []string) ([]monitor.Result, error)
}

type monitorRequest struct {
	Profiles []string `json:"profiles"`
}

// Server exposes batch monitoring over HTTP. Only one batch runs at a time.
type Server struct {
	runner   BatchRunner
	cooldown *cache.Cooldown
	busy     sync.Mutex
	router   *gin.Engine
	log      *logger.Logger
}

// NewServer creates a new server. cooldown may be nil; HTTP and batch
// metrics are served from registry.
func NewServer(runner BatchRunner, cooldown *cache.Cooldown, registry *prometheus.Registry) *Server {
	s := &Server{
		runner:   runner,
		cooldown: cooldown,
		log:      logger.ForServer(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(newHTTPMetrics(registry).middleware())

	static, err := fs.Sub(webAssets, "web/static")
	if err != nil {
		panic(err)
	}
	router.GET("/", s.index)
	router.StaticFS("/static", http.FS(static))
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.POST("/monitor", s.monitor)

	s.router = router
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info().Msg("Server stopped")
	return nil
}

func (s *Server) index(c *gin.Context) {
	page, err := webAssets.ReadFile("web/index.html")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (s *Server) monitor(c *gin.Context) {
	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !s.busy.TryLock() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "a monitoring batch is already running"})
		return
	}
	defer s.busy.Unlock()

	if s.cooldown != nil {
		active, err := s.cooldown.Active()
		if err != nil {
			s.log.Warn().Err(err).Msg("Cooldown check failed")
		}
		if active {
			c.Header("Retry-After", fmt.Sprintf("%.0f", s.cooldown.Period().Seconds()))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "monitoring is cooling down"})
			return
		}
	}

	// A started batch runs to completion even if the client goes away
	ctx := context.WithoutCancel(c.Request.Context())
	results, err := s.runner.MonitorBatch(ctx, req.Profiles)

	if s.cooldown != nil {
		if err := s.cooldown.Start(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to start cooldown")
		}
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
