package state

import (
	"sync"
	"time"

	"gitea.jw6.us/james/calplanner/internal/metrics"
)

const defaultMaxSessions = 10000

// Factory builds the stores for a session id seen for the first time.
type Factory func(id string) *Session

// Registry keeps sessions in memory, keyed by id.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*registryEntry
	factory    Factory
	idle       time.Duration
	maxEntries int
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type registryEntry struct {
	session    *Session
	lastAccess time.Time
}

// NewRegistry starts a registry whose sessions expire after idle without
// use. Expired sessions are swept every idle/2.
func NewRegistry(factory Factory, idle time.Duration) *Registry {
	r := &Registry{
		sessions:   make(map[string]*registryEntry),
		factory:    factory,
		idle:       idle,
		maxEntries: defaultMaxSessions,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if idle > 0 {
		go r.cleanupLoop(idle / 2)
	}
	return r
}

// Get returns the session for id and whether it already existed.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.sessions[id]; ok {
		entry.lastAccess = r.now()
		return entry.session, true
	}

	if len(r.sessions) >= r.maxEntries {
		r.evictOldest()
	}
	sess := r.factory(id)
	r.sessions[id] = &registryEntry{session: sess, lastAccess: r.now()}
	metrics.SetActiveSessions(len(r.sessions))
	return sess, false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the cleanup loop.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) evictOldest() {
	var oldestID string
	var oldestTime time.Time

	for id, entry := range r.sessions {
		if oldestID == "" || entry.lastAccess.Before(oldestTime) {
			oldestID = id
			oldestTime = entry.lastAccess
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
	}
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	if interval <= 0 {
		interval = r.idle
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

// sweep drops sessions idle for longer than the idle timeout.
func (r *Registry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	for id, entry := range r.sessions {
		if entry.lastAccess.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
	metrics.SetActiveSessions(len(r.sessions))
}
