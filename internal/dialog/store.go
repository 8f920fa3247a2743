package dialog

import (
	"sync"
	"time"
)

// Store owns every live dialogue session, keyed by session id. Events for
// the same session are serialized by a per-session mutex, so a transition
// and its side effects commit atomically; events for different sessions run
// in parallel.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time // injectable clock for tests
}

type entry struct {
	mu   sync.Mutex
	sess Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// With runs fn with exclusive access to the session for id, creating an
// idle session on first use. Whatever state fn leaves behind is the
// committed state; a session left in StateIdle is removed from the store,
// so reaching the terminal state destroys the session.
func (st *Store) With(id string, fn func(sess *Session)) {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if !ok {
		e = &entry{sess: Session{ID: id, State: StateIdle}}
		st.sessions[id] = e
	}
	st.mu.Unlock()

	e.mu.Lock()
	fn(&e.sess)
	e.sess.LastActivity = st.now()
	done := e.sess.State == StateIdle
	e.mu.Unlock()

	if done {
		st.mu.Lock()
		if cur, ok := st.sessions[id]; ok && cur == e {
			delete(st.sessions, id)
		}
		st.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// SessionInfo is a read-only snapshot of one live session for the dashboard.
type SessionInfo struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	Cities       int       `json:"cities"`
	LastActivity time.Time `json:"last_activity"`
}

// Snapshot returns dashboard info for every live session.
func (st *Store) Snapshot() []SessionInfo {
	st.mu.RLock()
	entries := make([]*entry, 0, len(st.sessions))
	for _, e := range st.sessions {
		entries = append(entries, e)
	}
	st.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		cities := 0
		if e.sess.Route.StartCity != "" {
			cities = len(e.sess.Route.Legs())
		}
		infos = append(infos, SessionInfo{
			ID:           e.sess.ID,
			State:        e.sess.State.String(),
			Cities:       cities,
			LastActivity: e.sess.LastActivity,
		})
		e.mu.Unlock()
	}
	return infos
}

// Evict removes sessions idle for longer than ttl and returns how many were
// dropped. Abandoned dialogues have no explicit cancel; this is the TTL
// quality-of-service sweep.
func (st *Store) Evict(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, e := range st.sessions {
		// A session mid-event holds its lock; it is active, not stale.
		if !e.mu.TryLock() {
			continue
		}
		stale := e.sess.LastActivity.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}
