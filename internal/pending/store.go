package pending

import (
	"sync"

	"krakenbot/models"
)

// Store holds at most one live follow-up expectation per user. Entries are
// volatile and do not survive a restart.
type Store struct {
	mu      sync.Mutex
	entries map[string]models.PendingEntry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]models.PendingEntry)}
}

// Take returns and removes the entry for the user. The read-once semantics
// mean a second Take in the same turn sees nothing.
func (s *Store) Take(userID string) (models.PendingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[userID]
	if ok {
		delete(s.entries, userID)
	}
	return entry, ok
}

// Put overwrites the user's entry unconditionally.
func (s *Store) Put(userID string, entry models.PendingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry
}

// Remove drops the user's entry if present. Idempotent.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}
