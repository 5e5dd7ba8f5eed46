package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

// keyPrefix namespaces the marketplace documents inside a shared Redis.
const keyPrefix = "etheron:"

// store implements domain.DocumentStore on Redis
type store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed document store
func NewStore(client *redis.Client) domain.DocumentStore {
	return &store{client: client}
}

func storeKey(key string) string {
	return keyPrefix + key
}

// Load retrieves a stored document by key
func (s *store) Load(ctx context.Context, key string) (json.RawMessage, bool, error) {
	value, err := s.client.Get(ctx, storeKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load document %q: %w", key, err)
	}

	return json.RawMessage(value), true, nil
}

// Save overwrites the document stored under key. Documents never expire.
func (s *store) Save(ctx context.Context, key string, doc json.RawMessage) error {
	if err := s.client.Set(ctx, storeKey(key), []byte(doc), 0).Err(); err != nil {
		return fmt.Errorf("failed to save document %q: %w", key, err)
	}
	return nil
}
