// Package server exposes worksheet generation and export over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/validate"
	"github.com/ppiankov/aontas/internal/worker"
)

// maxBodyBytes bounds request bodies; the validator caps input text further
const maxBodyBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API in front of a worksheet generator
type Server struct {
	config    *model.Config
	generator worker.Generator
	validator *validate.Validator
	limiter   *worker.Limiter
	logger    *zap.Logger
	engine    *gin.Engine
}

// New creates a server and registers its routes
func New(cfg *model.Config, generator worker.Generator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.L()
	}
	s := &Server{
		config:    cfg,
		generator: generator,
		validator: validate.NewValidator(cfg.LLM),
		limiter:   worker.NewLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		logger:    logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(s.logger))
	r.Use(CORS(s.config.Server.AllowedOrigins))

	api := r.Group("/api")
	api.GET("/health", s.health)

	limited := api.Group("")
	limited.Use(RateLimit(s.limiter))
	limited.POST("/generate", s.generate)
	limited.POST("/export/markdown", s.exportMarkdown)
	limited.POST("/export/html", s.exportHTML)

	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation is bounded by the request budget
		WriteTimeout: s.config.Budget.Total() + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "listen")
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutdown")
	}
	return nil
}
