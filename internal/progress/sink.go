package progress

import (
	"context"
	"log/slog"
)

// Update is one structured progress event. Meta carries open-keyed
// extras (total_pages, chunks_stored, source_id, ...) whose key set is
// genuinely unbounded.
type Update struct {
	Status   string         `json:"status"`
	Progress int            `json:"progress"`
	Log      string         `json:"log"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Sink receives progress updates for a task. Implementations must be
// safe for use from the single orchestrator goroutine of each run;
// independent runs may share one sink.
type Sink interface {
	Send(ctx context.Context, taskID string, u Update) error
}

// Func is the per-stage callback threaded into crawl and storage
// collaborators: stage-local status, 0-100 progress, a human-readable
// message and optional metadata.
type Func func(status string, pct int, message string, meta map[string]any)

// LogSink writes every update to slog. It is the fallback sink for CLI
// runs where no service layer is listening.
type LogSink struct{}

// Send implements Sink.
func (LogSink) Send(_ context.Context, taskID string, u Update) error {
	slog.Info("crawl progress",
		"task_id", taskID,
		"status", u.Status,
		"progress", u.Progress,
		"log", u.Log)
	return nil
}
