// Package server hosts the local diagram viewer. It renders the project on
// demand so that edits to the Terraform files show up on the next refresh,
// relying on the artifact cache to make unchanged reloads cheap.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stackplot/stackplot/pkg/errors"
	"github.com/stackplot/stackplot/pkg/pipeline"
)

// Server serves rendered diagrams for a single Terraform project.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	addr   string
	logger *log.Logger
}

// New builds a Server around an existing pipeline runner. The pipeline
// options describe the project to render; the format is chosen per request.
func New(runner *pipeline.Runner, opts pipeline.Options, addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if addr == "" {
		addr = "localhost:8080"
	}
	return &Server{runner: runner, opts: opts, addr: addr, logger: logger}
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

// Router builds the HTTP routes. Exposed separately so tests can drive the
// handlers through httptest without binding a socket.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/", s.handlePage)
	r.Get("/diagram.svg", s.handleArtifact(pipeline.FormatSVG, "image/svg+xml"))
	r.Get("/diagram.dot", s.handleArtifact(pipeline.FormatDOT, "text/vnd.graphviz"))
	r.Get("/metadata.json", s.handleMetadata)
	r.Get("/health", s.handleHealth)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving diagram", "addr", "http://"+s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) execute(r *http.Request, format string) (*pipeline.Result, error) {
	opts := s.opts
	opts.Formats = []string{format}
	if r.URL.Query().Get("refresh") != "" {
		opts.Refresh = true
	}
	return s.runner.Execute(r.Context(), opts)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	result, err := s.execute(r, pipeline.FormatHTML)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(result.Artifacts[pipeline.FormatHTML])
}

func (s *Server) handleArtifact(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.execute(r, format)
		if err != nil {
			s.respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(result.Artifacts[format])
	}
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	result, err := s.execute(r, pipeline.FormatSVG)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"project_hash": result.ProjectHash,
		"services":     result.Aggregated.Metadata(),
		"stats": map[string]int{
			"resources":   result.Stats.ResourceCount,
			"services":    result.Stats.ServiceCount,
			"connections": result.Stats.ConnectionCount,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case errors.ErrCodeFileNotFound, errors.ErrCodeNotFound, errors.ErrCodeNoResources:
		status = http.StatusNotFound
	case errors.ErrCodeParse, errors.ErrCodeState:
		status = http.StatusUnprocessableEntity
	}

	s.logger.Error("request failed", "code", code, "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":  string(code),
		"error": errors.UserMessage(err),
	})
}
