package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

// Store implements domain.DocumentStore in process memory. Used by tests
// and for running the server without external infrastructure.
type Store struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewStore creates an empty in-memory document store
func NewStore() *Store {
	return &Store{docs: make(map[string]json.RawMessage)}
}

var _ domain.DocumentStore = (*Store)(nil)

// Load retrieves a stored document by key
func (s *Store) Load(ctx context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}

	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out, true, nil
}

// Save overwrites the document stored under key
func (s *Store) Save(ctx context.Context, key string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(json.RawMessage, len(doc))
	copy(stored, doc)
	s.docs[key] = stored
	return nil
}
