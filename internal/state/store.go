package state

import (
	"sync"

	"github.com/jcalloway/tipwire/internal/telemetry"
)

// Store keeps live match state keyed by match ID.
type Store struct {
	mu      sync.RWMutex
	matches map[string]*Match
}

func NewStore() *Store {
	return &Store{matches: make(map[string]*Match)}
}

// GetOrCreate returns the match for id, creating it on first sight.
func (s *Store) GetOrCreate(id, league, home, away string, totalSecs int) *Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.matches[id]; ok {
		return m
	}
	m := NewMatch(id, league, home, away, totalSecs)
	s.matches[id] = m
	telemetry.Metrics.ActiveMatches.Set(int64(len(s.matches)))
	return m
}

func (s *Store) Get(id string) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

// Remove drops a finished match from the store.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	telemetry.Metrics.ActiveMatches.Set(int64(len(s.matches)))
}

// Len returns the number of tracked matches.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
