// Package server exposes the curation pipeline over a JSON API: trigger
// runs, browse persisted results and manage the interest model.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/vidscope/vidscope/pkg/db"
	"github.com/vidscope/vidscope/pkg/domain"
	"github.com/vidscope/vidscope/pkg/interest"
	"github.com/vidscope/vidscope/pkg/llm"
)

// Database interface for server operations
type Database interface {
	GetRun(ctx context.Context, id int64) (*db.Run, error)
	GetRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRunItems(ctx context.Context, runID int64) ([]domain.Item, error)
	GetStats(ctx context.Context) (*db.RunStats, error)
	GetInterests(ctx context.Context) (domain.InterestModel, error)
	SaveInterests(ctx context.Context, model domain.InterestModel) error
}

// Curator triggers on-demand curation runs over the configured sources
type Curator interface {
	CurateNow(ctx context.Context) (int64, *domain.PipelineResult, error)
}

// Runner executes the pipeline over caller-supplied items, used for ad-hoc
// curation requests that bypass the configured sources
type Runner interface {
	Run(ctx context.Context, items []domain.Item, interests interest.Input) domain.PipelineResult
}

// ScorerInfo reports LLM client usage
type ScorerInfo interface {
	Stats() llm.Stats
}

// Config holds server settings
type Config struct {
	Listen  string
	Timeout time.Duration
	Version string
	Debug   bool
}

// Server represents HTTP server instance
type Server struct {
	cfg     Config
	db      Database
	curator Curator
	runner  Runner
	scorer  ScorerInfo

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg Config, database Database, curator Curator, runner Runner, scorer ScorerInfo) *Server {
	s := &Server{
		cfg:     cfg,
		db:      database,
		curator: curator,
		runner:  runner,
		scorer:  scorer,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	lgr.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("vidscope", "vidscope", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("POST /curate", s.curateHandler)
		r.HandleFunc("GET /runs", s.runsHandler)
		r.HandleFunc("GET /runs/{id}", s.runHandler)
		r.HandleFunc("GET /runs/{id}/items", s.runItemsHandler)
		r.HandleFunc("GET /stats", s.statsHandler)
		r.HandleFunc("GET /interests", s.getInterestsHandler)
		r.HandleFunc("PUT /interests", s.putInterestsHandler)
	})
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
