package supersede

import (
	"context"
	"sync"
)

// Handle identifies one registration. It is returned by Register and
// consumed by ReleaseOwned.
type Handle struct {
	cancel context.CancelCauseFunc
}

// Cancel cancels the registration's context with the given cause.
func (h *Handle) Cancel(cause error) {
	if h != nil && h.cancel != nil {
		h.cancel(cause)
	}
}

// Tracker keeps at most one live cancellation handle per key. Registering
// a key that already has a handle cancels the old one with ErrSuperseded.
type Tracker struct {
	mu sync.Mutex
	m  map[string]*Handle

	// onSupersede, if set, is called (outside the lock) with the key of
	// every cancelled predecessor.
	onSupersede func(key string)
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		m: make(map[string]*Handle),
	}
}

// OnSupersede installs a hook fired whenever a registration cancels a
// predecessor.
func (t *Tracker) OnSupersede(fn func(key string)) {
	t.mu.Lock()
	t.onSupersede = fn
	t.mu.Unlock()
}

// Register derives a cancellable context from parent, cancels any live
// handle stored under key and stores the new one in its place.
func (t *Tracker) Register(parent context.Context, key string) (context.Context, *Handle) {
	ctx, cancel := context.WithCancelCause(parent)
	h := &Handle{cancel: cancel}

	t.mu.Lock()
	prev, superseded := t.m[key]
	t.m[key] = h
	hook := t.onSupersede
	t.mu.Unlock()

	if superseded {
		prev.Cancel(ErrSuperseded)
		if hook != nil {
			hook(key)
		}
	}

	return ctx, h
}

// Release removes whatever is stored under key and cancels it with
// context.Canceled. It reports whether an entry was present.
func (t *Tracker) Release(key string) bool {
	t.mu.Lock()
	h, ok := t.m[key]
	delete(t.m, key)
	t.mu.Unlock()

	if ok {
		h.Cancel(context.Canceled)
	}
	return ok
}

// ReleaseOwned removes the entry for key only when it still holds h, so a
// superseded request cannot remove its successor's entry. The handle's
// context is cancelled either way to free its resources.
func (t *Tracker) ReleaseOwned(key string, h *Handle) bool {
	t.mu.Lock()
	owned := t.m[key] == h
	if owned {
		delete(t.m, key)
	}
	t.mu.Unlock()

	h.Cancel(context.Canceled)
	return owned
}

// Has reports whether key currently has a live entry.
func (t *Tracker) Has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.m[key]
	return ok
}

// Len returns the number of live entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
