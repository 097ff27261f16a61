// Package logout implements ssocore.LogoutHandler as an in-memory session
// registry: it remembers which sessions were established by a successful
// validation so a later Single Logout can find and invalidate them.
package logout

import (
	"context"
	"sync"
	"time"
)

// Record is a single recorded session, keyed by the string RecordSession
// receives (conventionally "entityID|nameID|sessionIndex").
type Record struct {
	Key        string
	RecordedAt time.Time
}

// Registry tracks recorded sessions for later Single Logout bookkeeping.
// RecordSession is best-effort and fire-and-forget from the validator's
// point of view; Registry itself never fails a lookup.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewRegistry builds an empty session registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// RecordSession implements ssocore.LogoutHandler.
func (r *Registry) RecordSession(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = Record{Key: key, RecordedAt: time.Now()}
	return nil
}

// Lookup reports whether a session key was ever recorded.
func (r *Registry) Lookup(key string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	return rec, ok
}

// Forget removes a recorded session, e.g. once its Single Logout has been
// processed elsewhere.
func (r *Registry) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
}

// Count returns the number of currently recorded sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
