package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisMirror stores the snapshot under a single Redis key.
type RedisMirror struct {
	client   *redis.Client
	key      string
	maxBytes int64
}

// NewRedisMirror builds a Redis-backed snapshot slot.
func NewRedisMirror(addr, password, key string, maxBytes int64) *RedisMirror {
	return NewRedisMirrorWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), key, maxBytes)
}

// NewRedisMirrorWithClient reuses an existing client.
func NewRedisMirrorWithClient(client *redis.Client, key string, maxBytes int64) *RedisMirror {
	if key == "" {
		key = DefaultSlot
	}
	return &RedisMirror{client: client, key: key, maxBytes: maxBytes}
}

func (m *RedisMirror) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot key: %w", err)
	}
	return data, true, nil
}

func (m *RedisMirror) Save(ctx context.Context, payload []byte) error {
	if m.maxBytes > 0 && int64(len(payload)) > m.maxBytes {
		return ErrQuotaExceeded
	}
	if err := m.client.Set(ctx, m.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot key: %w", err)
	}
	return nil
}
