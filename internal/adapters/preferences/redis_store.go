package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

const redisSortPrefix = "sort:"

// RedisSortStore keeps preferences in Redis so every API instance sees them
type RedisSortStore struct {
	client *redis.Client
}

// NewRedisSortStore creates a store over client
func NewRedisSortStore(client *redis.Client) *RedisSortStore {
	return &RedisSortStore{client: client}
}

// Load implements providers.SortStore
func (s *RedisSortStore) Load(ctx context.Context, listID string) (*entities.SortState, error) {
	raw, err := s.client.Get(ctx, redisSortPrefix+listID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sort preference: %w", err)
	}
	return decodeSort(raw)
}

// Save implements providers.SortStore
func (s *RedisSortStore) Save(ctx context.Context, listID string, state entities.SortState) error {
	raw, err := encodeSort(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisSortPrefix+listID, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write sort preference: %w", err)
	}
	return nil
}
