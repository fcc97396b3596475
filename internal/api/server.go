// Package api serves timeline layouts over HTTP.
//
// Routes:
//
//	GET    /healthz                     liveness and build info
//	POST   /v1/layout                   lay out the posted document
//	POST   /v1/zoom                     zoom a posted document into a bucket
//	PUT    /v1/timelines/{id}           store a document
//	GET    /v1/timelines/{id}           fetch a stored document
//	DELETE /v1/timelines/{id}           delete a stored document
//	POST   /v1/timelines/{id}/layout    lay out a stored document, saving geometry
//	GET    /v1/timelines/{id}/geometry  last saved geometry
//	GET    /v1/files/*                  lay out a document below the docs directory
//
// Document bodies are JSON unless the format query parameter or the
// Content-Type header says yaml or toml. Errors are JSON objects carrying
// the error code.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/store"
)

// DefaultMaxBody caps request bodies.
const DefaultMaxBody = 4 << 20

// Config wires a Server.
type Config struct {
	Runner *pipeline.Runner
	// Store holds timelines for the /v1/timelines routes. Nil means an
	// in-memory store.
	Store  store.Store
	Logger *log.Logger
	// DocsDir enables /v1/files when set.
	DocsDir string
	MaxBody int64
}

// Server is the HTTP surface. Each request runs its own layout pass.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	docsDir string
	maxBody int64
}

// New returns a server for cfg.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		logger:  cfg.Logger,
		docsDir: cfg.DocsDir,
		maxBody: cfg.MaxBody,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/zoom", s.handleZoom)
		r.Route("/timelines/{id}", func(r chi.Router) {
			r.Put("/", s.handlePutTimeline)
			r.Get("/", s.handleGetTimeline)
			r.Delete("/", s.handleDeleteTimeline)
			r.Post("/layout", s.handleRelayout)
			r.Get("/geometry", s.handleGeometry)
		})
		if s.docsDir != "" {
			r.Get("/files/*", s.handleFile)
		}
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, errorBody(r, "NOT_FOUND", "no route for "+r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the store and the runner's cache.
func (s *Server) Close(ctx context.Context) error {
	return errors.Join(s.store.Close(ctx), s.runner.Close())
}
