package progress

import (
	"sync"
	"time"
)

// PollState is a readable snapshot of one run's progress.
type PollState struct {
	TaskID      string         `json:"task_id"`
	URL         string         `json:"url"`
	Status      string         `json:"status"`
	Progress    int            `json:"progress"`
	Log         string         `json:"log"`
	Meta        map[string]any `json:"meta,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Done reports whether the run reached a terminal state.
func (s PollState) Done() bool {
	return s.Status == StageCompleted || s.Status == StageError
}

// PollTracker mirrors tracker updates into a snapshot that other
// goroutines (HTTP handlers, the CLI UI) can read while the pipeline
// runs. Unlike the tracker itself it is safe for concurrent access.
type PollTracker struct {
	mu    sync.RWMutex
	state PollState
}

// NewPollTracker returns an empty poll tracker.
func NewPollTracker() *PollTracker {
	return &PollTracker{}
}

// Start resets the snapshot for a new run.
func (p *PollTracker) Start(taskID, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = PollState{
		TaskID:    taskID,
		URL:       url,
		Status:    StageStarting,
		StartedAt: time.Now(),
	}
}

// Update mirrors a non-terminal progress update.
func (p *PollTracker) Update(status string, progress int, log string, meta map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Status = status
	p.state.Progress = progress
	p.state.Log = log
	p.state.Meta = meta
}

// Complete marks the snapshot as finished.
func (p *PollTracker) Complete(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.state.Status = StageCompleted
	p.state.Progress = 100
	p.state.CompletedAt = &now
}

// Error marks the snapshot as failed.
func (p *PollTracker) Error(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.state.Status = StageError
	p.state.Error = message
	p.state.CompletedAt = &now
}

// State returns a copy of the current snapshot. The metadata map is
// copied so callers cannot race with the tracker goroutine.
func (p *PollTracker) State() PollState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := p.state
	if p.state.Meta != nil {
		out.Meta = make(map[string]any, len(p.state.Meta))
		for k, v := range p.state.Meta {
			out.Meta[k] = v
		}
	}
	return out
}
