// Package httpapi exposes the indexer and retriever over a JSON HTTP API
// built on echo.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

var (
	// ErrMissingIndexerService is returned when the indexer is not provided.
	ErrMissingIndexerService = errors.New("httpapi: indexer service is required")

	// ErrMissingRetrieverService is returned when the retriever is not provided.
	ErrMissingRetrieverService = errors.New("httpapi: retriever service is required")
)

// Ports aggregates the driving ports used by the API.
type Ports struct {
	Indexer   driving.IndexerService
	Retriever driving.RetrieverService

	// Document is optional. Without it the document routes are not registered.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Indexer == nil {
		return ErrMissingIndexerService
	}
	if p.Retriever == nil {
		return ErrMissingRetrieverService
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	ports *Ports
	echo  *echo.Echo
}

// NewServer builds the router. metrics, when non-nil, is served at /metrics.
func NewServer(ports *Ports, metrics http.Handler) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = errorHandler

	s := &Server{ports: ports, echo: e}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	s.register(e.Group("/v1"))

	return s, nil
}

func (s *Server) register(g *echo.Group) {
	if s.ports.Document != nil {
		g.POST("/documents", s.addDocument)
		g.GET("/documents", s.listDocuments)
		g.GET("/documents/:id", s.getDocument)
		g.DELETE("/documents/:id", s.removeDocument)
	}
	g.POST("/documents/:id/index", s.indexDocument)
	g.GET("/documents/:id/chunks", s.documentChunks)

	g.POST("/search", s.search)
	g.POST("/retrieve", s.retrieve)
	g.POST("/retrieve/multi", s.retrieveMulti)
	g.POST("/prompt", s.prompt)

	g.POST("/citations", s.trackCitations)
	g.GET("/sessions/:id/citations", s.sessionCitations)
	g.GET("/citations/top", s.topCited)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// errorHandler writes {"error": msg} with a status derived from the
// domain error.
func errorHandler(err error, c echo.Context) {
	code := statusFor(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		logger.Error("%d %s %s: %v", code, req.Method, req.URL.Path, err)
	} else {
		logger.Debug("%d %s %s: %v", code, req.Method, req.URL.Path, err)
	}

	if !c.Response().Committed {
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}
