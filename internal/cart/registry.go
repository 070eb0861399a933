package cart

import (
	"context"
	"sync"
	"time"
)

// Registry caches one Store per browser session, keyed by the session
// cookie value. Entries idle past the TTL are swept so abandoned sessions
// do not accumulate.
type Registry struct {
	backend Backend
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	store      *Store
	lastAccess time.Time
}

// NewRegistry builds a registry with the given idle TTL.
func NewRegistry(backend Backend, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		backend: backend,
		ttl:     ttl,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the session's store, creating it on first access.
func (r *Registry) Get(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &registryEntry{store: NewStore(r.backend)}
		r.entries[sessionID] = entry
	}
	entry.lastAccess = time.Now()
	return entry.store
}

// Drop removes the session's store (used on sign-out).
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Len reports the number of cached sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts entries idle past the TTL.
func (r *Registry) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.entries {
		if now.Sub(entry.lastAccess) > r.ttl {
			delete(r.entries, id)
		}
	}
}

// StartJanitor sweeps on the given interval until ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.Sweep(now)
			}
		}
	}()
}
