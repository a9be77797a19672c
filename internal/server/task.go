package server

import (
	"context"
	"sync"

	"github.com/raphaelgruber/crawlkit/internal/progress"
	"github.com/raphaelgruber/crawlkit/internal/service"
)

// task holds the server-side state of one crawl run: the pollable
// snapshot and the set of websocket subscribers receiving live updates.
// It implements progress.Sink.
type task struct {
	poll *progress.PollTracker

	mu     sync.Mutex
	subs   map[chan progress.Update]struct{}
	done   bool
	result *service.Result
}

func newTask() *task {
	return &task{
		poll: progress.NewPollTracker(),
		subs: make(map[chan progress.Update]struct{}),
	}
}

// Send implements progress.Sink by fanning the update out to every
// subscriber. Slow subscribers are skipped rather than blocking the
// pipeline.
func (t *task) Send(_ context.Context, _ string, u progress.Update) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- u:
		default:
		}
	}
	if u.Status == progress.StageCompleted || u.Status == progress.StageError {
		t.closeSubsLocked()
	}
	return nil
}

// subscribe registers a live update channel. The returned cancel
// function is safe to call after the channel has been closed. A task
// that already finished yields a closed channel immediately.
func (t *task) subscribe() (<-chan progress.Update, func()) {
	ch := make(chan progress.Update, 16)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
}

// finish records the orchestration result and releases any remaining
// subscribers. Failures are already reflected in the poll state by the
// tracker's terminal error update.
func (t *task) finish(result *service.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = result
	t.closeSubsLocked()
}

// outcome returns the recorded result, nil while the run is ongoing.
func (t *task) outcome() *service.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

func (t *task) closeSubsLocked() {
	if t.done {
		return
	}
	t.done = true
	for ch := range t.subs {
		close(ch)
		delete(t.subs, ch)
	}
}
