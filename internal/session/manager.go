package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotor-modal/client/internal/intake"
)

// MaxSessions limits concurrent browser sessions to bound stored uploads
const MaxSessions = 256

// SessionMaxAge is how long an idle session is kept before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// Handoff is the part of the results store the manager needs to release a
// session's results.
type Handoff interface {
	intake.Handoff
	DiscardOwner(owner string) int
}

// Manager maps browser sessions to their intake controllers.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	files       intake.FileSource
	analyzer    intake.Analyzer
	handoff     Handoff
	opts        []intake.Option
	maxSessions int
}

// SessionState holds one browser session.
type SessionState struct {
	ID           string
	Controller   *intake.Controller
	CreatedAt    time.Time
	LastAccessed time.Time // Last time the session was accessed (for keep-alive)
}

// NewManager creates a session manager. Every controller it creates shares
// files, analyzer and handoff and is configured with opts.
func NewManager(files intake.FileSource, analyzer intake.Analyzer, handoff Handoff, opts ...intake.Option) *Manager {
	return &Manager{
		sessions:    make(map[string]*SessionState),
		files:       files,
		analyzer:    analyzer,
		handoff:     handoff,
		opts:        opts,
		maxSessions: MaxSessions,
	}
}

// SetMaxSessions overrides the session limit. Values below one are ignored.
func (m *Manager) SetMaxSessions(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	m.maxSessions = n
	m.mu.Unlock()
}

// Acquire returns the controller for id, creating a new session when id is
// empty or unknown. The returned ID is the one the caller must remember.
func (m *Manager) Acquire(id string) (*intake.Controller, string, bool) {
	if id != "" {
		m.mu.Lock()
		if state, ok := m.sessions[id]; ok {
			state.LastAccessed = time.Now()
			m.mu.Unlock()
			return state.Controller, id, false
		}
		m.mu.Unlock()
	}

	m.evictIfNeeded()

	id = uuid.New().String()
	now := time.Now()
	state := &SessionState{
		ID:           id,
		Controller:   intake.NewController(id, m.files, m.analyzer, m.handoff, m.opts...),
		CreatedAt:    now,
		LastAccessed: now,
	}

	m.mu.Lock()
	m.sessions[id] = state
	m.mu.Unlock()

	fmt.Printf("[Session] Created session %s\n", shortID(id))
	return state.Controller, id, true
}

// TouchSession updates the LastAccessed timestamp for a session.
// The event stream calls it on every client ping so an open page keeps
// its session alive.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle for longer than maxAge,
// but keeps sessions accessed within SessionKeepAliveWindow and
// sessions with a submission in flight. It returns the number removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	var expired []*SessionState
	m.mu.Lock()
	for id, state := range m.sessions {
		if state.LastAccessed.After(keepAliveCutoff) || !state.LastAccessed.Before(cutoff) {
			continue
		}
		if state.Controller.State() == intake.StateSubmitting {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, state)
	}
	m.mu.Unlock()

	for _, state := range expired {
		m.release(state)
		fmt.Printf("[Session] Cleaned up aged session %s (last accessed: %s ago)\n",
			shortID(state.ID), time.Since(state.LastAccessed).Round(time.Second))
	}
	return len(expired)
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	states := make([]*SessionState, 0, len(m.sessions))
	for id, state := range m.sessions {
		states = append(states, state)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, state := range states {
		m.release(state)
	}
}

// evictIfNeeded removes the least recently used idle sessions when at capacity
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()
	if len(m.sessions) < m.maxSessions {
		m.mu.Unlock()
		return
	}

	candidates := make([]*SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		if state.Controller.State() != intake.StateSubmitting {
			candidates = append(candidates, state)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastAccessed.Before(candidates[j].LastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	var evicted []*SessionState
	for _, state := range candidates {
		if len(evicted) >= toFree {
			break
		}
		delete(m.sessions, state.ID)
		evicted = append(evicted, state)
	}
	m.mu.Unlock()

	for _, state := range evicted {
		m.release(state)
		fmt.Printf("[Session] Evicted session %s to stay under limit\n", shortID(state.ID))
	}
}

// release closes the controller, which frees stored slot files, and drops
// any results the session still owns.
func (m *Manager) release(state *SessionState) {
	state.Controller.Close()
	if n := m.handoff.DiscardOwner(state.ID); n > 0 {
		fmt.Printf("[Session] Discarded %d result(s) of session %s\n", n, shortID(state.ID))
	}
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
