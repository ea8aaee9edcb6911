package results

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotor-modal/client/internal/models"
)

// Entry is a finished analysis waiting to be displayed.
type Entry struct {
	ID        string
	Owner     string
	Result    *models.AnalysisResult
	CreatedAt time.Time
}

// Store hands finished results from the intake workflow to the results
// view. Entries are keyed by a generated ID and readable only by the
// session that produced them.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStore creates an empty handoff store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Put stores result for owner and returns its ID.
func (s *Store) Put(owner string, result *models.AnalysisResult) string {
	entry := &Entry{
		ID:        uuid.New().String(),
		Owner:     owner,
		Result:    result,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()
	return entry.ID
}

// Get returns the result stored under id if owner produced it.
func (s *Store) Get(owner, id string) (*models.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok || entry.Owner != owner {
		return nil, false
	}
	return entry.Result, true
}

// Discard drops a single entry.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// DiscardOwner drops every entry belonging to owner and returns how many
// were removed.
func (s *Store) DiscardOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if entry.Owner == owner {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of held entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
