// Package api exposes the HTTP interface for the cloner service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sitecloner/internal/clone"
	"sitecloner/internal/config"
	"sitecloner/internal/metrics"
	"sitecloner/internal/progress"
)

const handlerTimeout = 60 * time.Second

// Runner starts the detached orchestration run for a freshly created job.
type Runner interface {
	Start(ctx context.Context, jobID, url string)
}

// Server wires HTTP handlers to the job store, progress registry, and
// orchestrator.
type Server struct {
	router   chi.Router
	store    clone.JobStore
	registry *progress.Registry
	runner   Runner
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store clone.JobStore,
	registry *progress.Registry,
	runner Runner,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		registry: registry,
		runner:   runner,
		cfg:      cfg,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware)

	// The websocket route stays outside the timeout group: http.TimeoutHandler
	// does not support hijacking.
	r.Get("/ws/clone/{job_id}", s.subscribeProgress)

	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(handlerTimeout))

		r.Get("/", s.index)
		r.Get("/health", s.health)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())

		r.Route("/api/clone", func(r chi.Router) {
			r.Post("/", s.submitClone)
			r.Route("/{job_id}", func(r chi.Router) {
				r.Get("/status", s.getStatus)
				r.Get("/result", s.getResult)
				r.Delete("/", s.deleteJob)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "sitecloner",
		"endpoints": map[string]string{
			"clone":     "POST /api/clone",
			"status":    "GET /api/clone/{job_id}/status",
			"result":    "GET /api/clone/{job_id}/result",
			"delete":    "DELETE /api/clone/{job_id}",
			"subscribe": "GET /ws/clone/{job_id}",
			"health":    "GET /health",
			"metrics":   "GET /metrics",
		},
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     "sitecloner",
		"active_jobs": s.store.ActiveCount(r.Context()),
	})
}

type cloneRequest struct {
	URL string `json:"url"`
}

func (s *Server) submitClone(w http.ResponseWriter, r *http.Request) {
	var req cloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	// URL validity is a job outcome, not a request-schema concern: a
	// malformed URL produces a failed job, observable through the normal
	// status and progress channels.

	job, err := s.store.Create(r.Context(), req.URL)
	if err != nil {
		s.logger.Error("create job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	// The run outlives the request; only its cancellation is detached.
	s.runner.Start(context.WithoutCancel(r.Context()), job.ID, job.URL)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "clone job accepted, subscribe for progress",
	})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.store.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.store.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != clone.StatusCompleted || job.Result == nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "result not ready",
			"status":   job.Status,
			"progress": job.Progress,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":         job.ID,
		"original_url":   job.Result.OriginalURL,
		"generated_html": job.Result.GeneratedHTML,
		"metadata":       job.Result.Metadata,
	})
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := s.store.Delete(r.Context(), jobID); err != nil {
		if errors.Is(err, clone.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("delete job failed", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":  jobID,
		"message": "job deleted",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
