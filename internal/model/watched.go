package model

import (
	"sort"
	"strings"
	"sync"
)

// WatchedSet holds the identity strings of movies marked as seen. Entries
// are only ever added. Safe for concurrent use.
type WatchedSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewWatchedSet builds a set from the given ids, ignoring blanks.
func NewWatchedSet(ids ...string) *WatchedSet {
	s := &WatchedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add records id. Blank ids are ignored.
func (s *WatchedSet) Add(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Contains reports whether id has been marked watched. A nil set contains
// nothing.
func (s *WatchedSet) Contains(id string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[strings.TrimSpace(id)]
	return ok
}

// Len returns the number of watched ids.
func (s *WatchedSet) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the watched ids in sorted order.
func (s *WatchedSet) IDs() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
