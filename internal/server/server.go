// Package server exposes the search engine over HTTP for the console.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seiforesti/searchhub/internal/config"
	hberrors "github.com/seiforesti/searchhub/internal/errors"
	"github.com/seiforesti/searchhub/internal/history"
	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/session"
	"github.com/seiforesti/searchhub/internal/suggest"
	"github.com/seiforesti/searchhub/internal/telemetry"
	"github.com/seiforesti/searchhub/pkg/version"
)

const (
	headerCallerID     = "X-Caller-Id"
	headerCapabilities = "X-Caller-Capabilities"
)

// Server wires the session manager, suggestion engine, and history
// store behind a gin router.
type Server struct {
	cfg      config.ServerConfig
	sessions *session.Manager
	engine   *search.Engine
	suggest  *suggest.Engine
	history  history.Provider
	metrics  *telemetry.SearchMetrics

	http *http.Server
}

// New creates a server. metrics may be nil.
func New(cfg config.ServerConfig, sessions *session.Manager, engine *search.Engine, sug *suggest.Engine, hist history.Provider, metrics *telemetry.SearchMetrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		engine:   engine,
		suggest:  sug,
		history:  hist,
		metrics:  metrics,
	}
}

// Router builds the gin handler.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.corsMiddleware(), requestLogger())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/search", s.handleSearch)
		api.GET("/suggest", s.handleSuggest)
		api.POST("/click", s.handleClick)
		api.GET("/sources", s.handleSources)
		api.GET("/metrics", s.handleMetrics)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", s.cfg.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
		"sources": s.engine.Registry().Len(),
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(hberrors.ValidationError("invalid search request", err)))
		return
	}

	caller := callerFrom(c)
	if caller.ID == "" {
		c.JSON(http.StatusBadRequest, errorBody(hberrors.ValidationError("missing "+headerCallerID+" header", nil)))
		return
	}

	resp, err := s.sessions.Search(c.Request.Context(), q, caller)
	if err != nil {
		status := http.StatusInternalServerError
		if hberrors.GetCategory(err) == hberrors.CategoryValidation {
			status = http.StatusBadRequest
		}
		c.JSON(status, errorBody(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSuggest(c *gin.Context) {
	prefix := c.Query("q")
	caller := callerFrom(c)
	candidates := s.suggest.Suggest(c.Request.Context(), caller, prefix)
	c.JSON(http.StatusOK, gin.H{"suggestions": candidates})
}

func (s *Server) handleClick(c *gin.Context) {
	var body struct {
		ResultID string `json:"result_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(hberrors.ValidationError("invalid click payload", err)))
		return
	}
	if err := s.history.RecordClick(c.Request.Context(), body.ResultID); err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSources lists the sources the caller may search. It never
// reveals sources the caller's capabilities do not admit.
func (s *Server) handleSources(c *gin.Context) {
	caller := callerFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"sources": s.engine.Registry().Accessible(caller.Capabilities),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := make(map[string]bool, len(s.cfg.AllowOrigins))
	allowAll := false
	for _, o := range s.cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+headerCallerID+", "+headerCapabilities)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)))
	}
}

// callerFrom builds the caller identity from gateway-injected headers.
func callerFrom(c *gin.Context) search.Caller {
	caller := search.Caller{
		ID:           strings.TrimSpace(c.GetHeader(headerCallerID)),
		Capabilities: map[string]bool{},
	}
	for _, name := range strings.Split(c.GetHeader(headerCapabilities), ",") {
		if name = strings.TrimSpace(name); name != "" {
			caller.Capabilities[name] = true
		}
	}
	return caller
}

func errorBody(err error) gin.H {
	return gin.H{
		"error": err.Error(),
		"code":  hberrors.GetCode(err),
	}
}
