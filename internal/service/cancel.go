package service

import (
	"sync"
	"sync/atomic"
)

// CancelToken is the one piece of shared mutable state between a running
// orchestration and the outside world. It is read at every checkpoint
// and written at most once, so an atomic flag beats a mutex here.
type CancelToken struct {
	cancelled atomic.Bool
}

// Cancel marks the token. Safe to call more than once.
func (t *CancelToken) Cancel() { t.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool { return t.cancelled.Load() }

// Registry maps external task ids to the cancel tokens of their live
// orchestrations, purely to support out-of-band cancellation. Entries
// exist only between task start and finish.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]*CancelToken
}

// NewRegistry creates an empty cancellation registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]*CancelToken)}
}

// Register creates and stores a fresh token for taskID, replacing any
// stale entry under the same id.
func (r *Registry) Register(taskID string) *CancelToken {
	token := &CancelToken{}
	r.mu.Lock()
	r.tokens[taskID] = token
	r.mu.Unlock()
	return token
}

// Unregister removes the token for taskID.
func (r *Registry) Unregister(taskID string) {
	r.mu.Lock()
	delete(r.tokens, taskID)
	r.mu.Unlock()
}

// Cancel marks the token for taskID. Returns false when no live task is
// registered under that id.
func (r *Registry) Cancel(taskID string) bool {
	r.mu.RLock()
	token := r.tokens[taskID]
	r.mu.RUnlock()
	if token == nil {
		return false
	}
	token.Cancel()
	return true
}

// Active returns the number of currently registered tasks.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
