package progress

import (
	"context"
	"time"
)

// DefaultHeartbeatInterval is how long the pipeline may stay silent
// before a liveness event is emitted.
const DefaultHeartbeatInterval = 30 * time.Second

// Heartbeat emits synthetic "still alive" events when wall-clock time
// since the last signal exceeds the interval. It exists so external
// watchdogs do not time out a pipeline that is healthy but silent during
// a long network or storage call. Intervals are approximate: heartbeats
// fire opportunistically at stage-boundary call sites, not on a timer.
type Heartbeat struct {
	tracker  *Tracker
	interval time.Duration
	now      func() time.Time // injectable for tests
	last     time.Time
}

// NewHeartbeat creates a heartbeat manager bound to tracker. A
// non-positive interval falls back to DefaultHeartbeatInterval.
func NewHeartbeat(tracker *Tracker, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	h := &Heartbeat{
		tracker:  tracker,
		interval: interval,
		now:      time.Now,
	}
	h.last = h.now()
	return h
}

// SendIfNeeded emits a heartbeat if the interval has elapsed since the
// last signal, then resets the clock. Returns whether it fired.
func (h *Heartbeat) SendIfNeeded(ctx context.Context) bool {
	if h.now().Sub(h.last) <= h.interval {
		return false
	}
	h.tracker.EmitHeartbeat(ctx)
	h.last = h.now()
	return true
}

// Reset forces the next SendIfNeeded to fire unconditionally.
func (h *Heartbeat) Reset() {
	h.last = time.Time{}
}

// Touch records that a real progress signal was just sent, pushing the
// next heartbeat out by a full interval.
func (h *Heartbeat) Touch() {
	h.last = h.now()
}
