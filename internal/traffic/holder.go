package traffic

import (
	"errors"
	"sync"
)

// ErrNotLoaded is returned while no dataset snapshot has been published.
var ErrNotLoaded = errors.New("traffic data not loaded")

// Holder publishes the current Engine. Swapping in a new snapshot wakes every
// goroutine waiting on the previous Changed channel.
type Holder struct {
	mu      sync.RWMutex
	engine  *Engine
	changed chan struct{}
}

// NewHolder creates an empty Holder.
func NewHolder() *Holder {
	return &Holder{changed: make(chan struct{})}
}

// Engine returns the current snapshot, or ErrNotLoaded.
func (h *Holder) Engine() (*Engine, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.engine == nil {
		return nil, ErrNotLoaded
	}
	return h.engine, nil
}

// Loaded reports whether a snapshot has been published.
func (h *Holder) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine != nil
}

// Set publishes e and signals waiters.
func (h *Holder) Set(e *Engine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine = e
	close(h.changed)
	h.changed = make(chan struct{})
}

// Changed returns a channel closed on the next Set.
func (h *Holder) Changed() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.changed
}
