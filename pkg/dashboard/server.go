// Package dashboard serves the interactive view of the final cleaned file:
// filtered summaries, charts, a country map, exports and a refresh action.
//
// Every request recomputes load, filter and summarize. The loaded table is
// kept in a one-entry cache until a refresh purges it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/olahol/melody"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/observability"
	"github.com/David-Botos/form-ingress/pkg/report"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

const (
	cacheKey        = "responses"
	shutdownTimeout = 5 * time.Second
	mapCountries    = 15
)

// Options configure the dashboard
type Options struct {
	DataPath       string   // Final workbook to serve
	AllowedOrigins []string // CORS origins; empty disables the CORS middleware
	TopCountries   int
}

// Server is the dashboard HTTP surface
type Server struct {
	opts    Options
	logger  *zap.Logger
	metrics *observability.Metrics
	router  *gin.Engine
	hub     *melody.Melody

	loadMu sync.Mutex
	cache  *lru.Cache[string, *model.Table]
}

// NewServer creates the dashboard. A nil metrics gets a private registry.
func NewServer(logger *zap.Logger, opts Options, metrics *observability.Metrics) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.DataPath == "" {
		return nil, errors.New("data path is required")
	}
	if opts.TopCountries <= 0 {
		opts.TopCountries = report.DefaultTopCountries
	}
	if metrics == nil {
		metrics = observability.New()
	}

	cache, err := lru.New[string, *model.Table](1)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	page, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	s := &Server{
		opts:    opts,
		logger:  logger.Named("dashboard"),
		metrics: metrics,
		cache:   cache,
		hub:     newHub(logger.Named("ws")),
	}
	s.router = s.routes(page)
	return s, nil
}

func newHub(logger *zap.Logger) *melody.Melody {
	m := melody.New()
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		logger.Debug("Client connected", zap.String("remote", s.Request.RemoteAddr))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		logger.Debug("Client disconnected", zap.String("remote", s.Request.RemoteAddr))
	})
	m.HandleError(func(_ *melody.Session, err error) {
		logger.Warn("WebSocket error", zap.Error(err))
	})
	return m
}

func (s *Server) routes(page *template.Template) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.observe())
	if len(s.opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: s.opts.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	router.SetHTMLTemplate(page)

	router.GET("/", s.handleIndex)
	api := router.Group("/api")
	{
		api.GET("/view", s.handleView)
		api.GET("/options", s.handleOptions)
		api.GET("/map", s.handleMap)
		api.POST("/refresh", s.handleRefresh)
	}
	router.GET("/charts/:name", s.handleChart)
	router.GET("/export/:format", s.handleExport)
	router.GET("/ws", func(c *gin.Context) {
		if err := s.hub.HandleRequest(c.Writer, c.Request); err != nil {
			s.logger.Warn("Failed to upgrade websocket", zap.Error(err))
		}
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"data":   s.opts.DataPath,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	return router
}

// observe logs and measures every request
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		s.metrics.ObserveRequest(route, c.Writer.Status(), duration)
		s.logger.Debug("Request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration))
	}
}

// Handler returns the HTTP handler, e.g. for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard listening", zap.String("addr", addr), zap.String("data", s.opts.DataPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dashboard server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.hub.Close(); err != nil {
		s.logger.Warn("Failed to close websocket sessions", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	return nil
}

// table returns the loaded workbook, reading it on a cache miss
func (s *Server) table() (*model.Table, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if t, ok := s.cache.Get(cacheKey); ok {
		s.metrics.CacheLookup(true)
		return t, nil
	}
	s.metrics.CacheLookup(false)

	t, err := sheet.ReadTable(s.opts.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.opts.DataPath, err)
	}
	s.cache.Add(cacheKey, t)
	s.logger.Info("Loaded responses", zap.String("path", s.opts.DataPath), zap.Int("rows", t.Len()))
	return t, nil
}

// Refresh drops the cached table and tells connected pages to reload
func (s *Server) Refresh() {
	s.loadMu.Lock()
	s.cache.Purge()
	s.loadMu.Unlock()

	if err := s.hub.Broadcast([]byte(`{"type":"refresh"}`)); err != nil {
		s.logger.Warn("Failed to broadcast refresh", zap.Error(err))
	}
}
