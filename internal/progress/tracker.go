package progress

import (
	"context"
	"fmt"
	"log/slog"
)

// Tracker is the single owner of one run's progress state. Every call
// maps stage-local progress to the overall scale, clamps it so the
// overall value never regresses, and relays a structured update to the
// external sink plus the optional poll mirror.
type Tracker struct {
	taskID string
	sink   Sink
	poll   *PollTracker
	mapper *Mapper

	url         string
	sourceID    string
	crawlType   string
	lastOverall int
	lastStatus  string
	lastLog     string
	meta        map[string]any
	terminal    bool
}

// Summary carries the final counters for a successful run.
type Summary struct {
	ChunksStored      int
	CodeExamplesFound int
	ProcessedPages    int
	TotalPages        int
	SourceID          string
}

// NewTracker creates a tracker for taskID. A nil sink falls back to
// LogSink; poll may be nil, in which case mirroring is a no-op.
func NewTracker(taskID string, sink Sink, poll *PollTracker) *Tracker {
	if sink == nil {
		sink = LogSink{}
	}
	return &Tracker{
		taskID: taskID,
		sink:   sink,
		poll:   poll,
		mapper: NewMapper(),
		meta:   make(map[string]any),
	}
}

// TaskID returns the external task id this tracker reports under.
func (t *Tracker) TaskID() string { return t.taskID }

// Mapper exposes the stage mapper for heartbeat use.
func (t *Tracker) Mapper() *Mapper { return t.mapper }

// SourceID returns the source id recorded so far, or "".
func (t *Tracker) SourceID() string { return t.sourceID }

// Start seeds the progress state for a new run.
func (t *Tracker) Start(ctx context.Context, url string) {
	t.url = url
	t.meta["url"] = url
	if t.poll != nil {
		t.poll.Start(t.taskID, url)
	}
	t.send(ctx, StageStarting, t.mapper.Map(StageStarting, 0), fmt.Sprintf("Starting crawl of %s", url), nil, false)
}

// UpdateMapped reports stage-local progress. Extra metadata is merged
// into the run's open metadata map.
func (t *Tracker) UpdateMapped(ctx context.Context, stage string, stageProgress int, message string, meta map[string]any) {
	overall := t.mapper.Map(stage, stageProgress)
	t.send(ctx, stage, overall, message, meta, false)
}

// UpdateCrawlType records which strategy produced the result set.
func (t *Tracker) UpdateCrawlType(ctx context.Context, crawlType string) {
	if crawlType == "" || crawlType == t.crawlType {
		return
	}
	t.crawlType = crawlType
	t.send(ctx, t.mapper.CurrentStage(), t.lastOverall, t.lastLog, map[string]any{"crawl_type": crawlType}, false)
}

// UpdateSourceID records the source id once it is known. Empty input is
// silently skipped and repeated calls with the same value are no-ops.
func (t *Tracker) UpdateSourceID(ctx context.Context, sourceID string) {
	if sourceID == "" || sourceID == t.sourceID {
		return
	}
	t.sourceID = sourceID
	t.send(ctx, t.mapper.CurrentStage(), t.lastOverall, t.lastLog, map[string]any{"source_id": sourceID}, false)
}

// Complete freezes the state at 100% with the final counters. Terminal
// by convention; the orchestrator's state machine guarantees it is the
// last real update.
func (t *Tracker) Complete(ctx context.Context, s Summary) {
	meta := map[string]any{
		"chunks_stored":       s.ChunksStored,
		"code_examples_found": s.CodeExamplesFound,
		"processed_pages":     s.ProcessedPages,
		"total_pages":         s.TotalPages,
	}
	if s.SourceID != "" {
		meta["source_id"] = s.SourceID
		t.sourceID = s.SourceID
	}
	overall := t.mapper.Map(StageCompleted, 100)
	t.send(ctx, StageCompleted, overall, "Crawl completed", meta, false)
	t.terminal = true
	if t.poll != nil {
		t.poll.Complete(s)
	}
}

// Error freezes the state with a terminal error message. The overall
// value is left at the last reported progress rather than reset.
func (t *Tracker) Error(ctx context.Context, message string) {
	t.send(ctx, StageError, t.lastOverall, message, map[string]any{"error": message}, false)
	t.terminal = true
	if t.poll != nil {
		t.poll.Error(message)
	}
}

// EmitHeartbeat resends the last reported state with heartbeat=true so
// long-poll consumers see liveness without a progress advance.
func (t *Tracker) EmitHeartbeat(ctx context.Context) {
	if t.terminal {
		return
	}
	t.send(ctx, t.lastStatus, t.lastOverall, t.lastLog, map[string]any{"heartbeat": true}, true)
}

func (t *Tracker) send(ctx context.Context, status string, overall int, message string, extra map[string]any, heartbeat bool) {
	// Real updates never regress; heartbeats repeat the last value.
	if !heartbeat && overall < t.lastOverall {
		overall = t.lastOverall
	}

	for k, v := range extra {
		t.meta[k] = v
	}

	meta := make(map[string]any, len(t.meta)+1)
	for k, v := range t.meta {
		meta[k] = v
	}
	if heartbeat {
		meta["heartbeat"] = true
	} else {
		delete(t.meta, "heartbeat")
		delete(meta, "heartbeat")
	}

	u := Update{
		Status:   status,
		Progress: overall,
		Log:      message,
		Meta:     meta,
	}

	if err := t.sink.Send(ctx, t.taskID, u); err != nil {
		slog.Warn("progress sink rejected update", "task_id", t.taskID, "status", status, "error", err)
	}
	if t.poll != nil && !heartbeat {
		t.poll.Update(status, overall, message, meta)
	}

	t.lastStatus = status
	t.lastLog = message
	if !heartbeat {
		t.lastOverall = overall
	}
}
