// Package server exposes the crawl pipeline over HTTP: launch crawls,
// poll or stream their progress, cancel them, and inspect sources.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/crawlkit/internal/metrics"
	"github.com/raphaelgruber/crawlkit/internal/models"
	"github.com/raphaelgruber/crawlkit/internal/progress"
	"github.com/raphaelgruber/crawlkit/internal/service"
)

// CrawlRunner runs one crawl orchestration. *service.Orchestrator
// satisfies it.
type CrawlRunner interface {
	Orchestrate(ctx context.Context, taskID string, req models.CrawlRequest, tracker *progress.Tracker) (*service.Result, error)
}

// SourceStore is the subset of the database the source endpoints need.
type SourceStore interface {
	ListSources(ctx context.Context) ([]models.Source, error)
	DeleteSource(ctx context.Context, sourceID string) (int, error)
}

// Server is the HTTP service over the crawl pipeline.
type Server struct {
	runner   CrawlRunner
	registry *service.Registry
	sources  SourceStore
	logger   *slog.Logger

	mu    sync.RWMutex
	tasks map[string]*task
}

// New creates a server. sources may be nil, which disables the source
// endpoints (used by tests).
func New(runner CrawlRunner, registry *service.Registry, sources SourceStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:   runner,
		registry: registry,
		sources:  sources,
		logger:   logger,
		tasks:    make(map[string]*task),
	}
}

// Handler returns the routed HTTP handler with logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/crawl", s.handleStartCrawl)
	mux.HandleFunc("GET /api/crawl/{id}", s.handleGetCrawl)
	mux.HandleFunc("DELETE /api/crawl/{id}", s.handleCancelCrawl)
	mux.HandleFunc("GET /api/crawl/{id}/ws", s.handleCrawlWS)
	mux.HandleFunc("GET /api/sources", s.handleListSources)
	mux.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	return loggingMiddleware(s.logger, mux)
}

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// crawlPayload is the POST /api/crawl body. ExtractCodeExamples is a
// pointer so an absent field keeps the default of true.
type crawlPayload struct {
	URL                 string   `json:"url"`
	KnowledgeType       string   `json:"knowledge_type"`
	Tags                []string `json:"tags"`
	MaxDepth            int      `json:"max_depth"`
	MaxConcurrent       int      `json:"max_concurrent"`
	ExtractCodeExamples *bool    `json:"extract_code_examples"`
	Provider            string   `json:"provider"`
	EmbeddingProvider   string   `json:"embedding_provider"`
}

func (s *Server) handleStartCrawl(w http.ResponseWriter, r *http.Request) {
	var payload crawlPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	req := models.NewCrawlRequest(payload.URL)
	if payload.KnowledgeType != "" {
		req.KnowledgeType = payload.KnowledgeType
	}
	req.Tags = payload.Tags
	if payload.MaxDepth > 0 {
		req.MaxDepth = payload.MaxDepth
	}
	if payload.MaxConcurrent > 0 {
		req.MaxConcurrent = payload.MaxConcurrent
	}
	if payload.ExtractCodeExamples != nil {
		req.ExtractCodeExamples = *payload.ExtractCodeExamples
	}
	req.Provider = payload.Provider
	req.EmbeddingProvider = payload.EmbeddingProvider

	taskID := uuid.New().String()
	t := newTask()

	s.mu.Lock()
	s.tasks[taskID] = t
	s.mu.Unlock()

	tracker := progress.NewTracker(taskID, t, t.poll)
	go func() {
		// The crawl outlives the HTTP request that launched it.
		result, err := s.runner.Orchestrate(context.Background(), taskID, req, tracker)
		if err != nil {
			s.logger.Error("crawl task failed", "task_id", taskID, "error", err)
		}
		t.finish(result)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"task_id": taskID,
		"url":     req.URL,
	})
}

// crawlStatus is the poll response: the live snapshot plus, once the
// run finished successfully, its final counters.
type crawlStatus struct {
	progress.PollState
	Result *service.Result `json:"result,omitempty"`
}

func (s *Server) handleGetCrawl(w http.ResponseWriter, r *http.Request) {
	t := s.task(r.PathValue("id"))
	if t == nil {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	writeJSON(w, http.StatusOK, crawlStatus{PollState: t.poll.State(), Result: t.outcome()})
}

func (s *Server) handleCancelCrawl(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if s.task(taskID) == nil {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	if !s.registry.Cancel(taskID) {
		writeError(w, http.StatusConflict, "task is not running")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"task_id": taskID, "cancelled": true})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	if s.sources == nil {
		writeError(w, http.StatusNotImplemented, "source store not configured")
		return
	}
	sources, err := s.sources.ListSources(r.Context())
	if err != nil {
		s.logger.Error("list sources failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list sources failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources, "count": len(sources)})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if s.sources == nil {
		writeError(w, http.StatusNotImplemented, "source store not configured")
		return
	}
	sourceID := r.PathValue("id")
	deleted, err := s.sources.DeleteSource(r.Context(), sourceID)
	if err != nil {
		s.logger.Error("delete source failed", "source_id", sourceID, "error", err)
		writeError(w, http.StatusInternalServerError, "delete source failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source_id": sourceID, "chunks_deleted": deleted})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Default().Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_tasks": s.registry.Active(),
	})
}

func (s *Server) task(id string) *task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks[id]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
