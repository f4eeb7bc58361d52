package session

import (
	"fmt"
	"strings"
	"sync"
)

// Store extends AttributeStore with lifecycle management.
type Store interface {
	AttributeStore
	Close() error
}

// NewStore creates the configured session attribute backend.
func NewStore(typ, path string) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt session store requires a path")
		}
		return openBoltStore(path)
	default:
		return nil, fmt.Errorf("unsupported session store type %q", typ)
	}
}

// MemoryStore is an in-process AttributeStore. Suitable for a single-instance
// deployment where sessions do not outlive the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]any
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]any)}
}

func (s *MemoryStore) Close() error { return nil }

// Attributes returns a copy of the attributes for the session.
func (s *MemoryStore) Attributes(sessionID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs := s.sessions[sessionID]
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out, nil
}

// SetAttributes merges the given attributes into the session.
func (s *MemoryStore) SetAttributes(sessionID string, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.sessions[sessionID]
	if existing == nil {
		existing = make(map[string]any, len(attrs))
		s.sessions[sessionID] = existing
	}
	for k, v := range attrs {
		existing[k] = v
	}
	return nil
}
