package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arteza/studio/internal/store"
)

// SlotStorage implements store.Storage with one Redis string per slot.
type SlotStorage struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSlotStorage creates a Redis-backed slot storage. A zero ttl keeps
// slots forever; otherwise every save refreshes the expiry.
func NewSlotStorage(client redis.UniversalClient, ttl time.Duration) *SlotStorage {
	return &SlotStorage{client: client, ttl: ttl}
}

// Load returns the bytes stored under key, or store.ErrSlotEmpty.
func (s *SlotStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get slot %s: %w", key, err)
	}
	return data, nil
}

// Save overwrites the slot under key.
func (s *SlotStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set slot %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection for the readiness check.
func (s *SlotStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
