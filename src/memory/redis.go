package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the record as JSON under its id and guards writes with WATCH
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := r.client.Get(ctx, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load memory record: %w", err)
	}

	rec, err := decodeRecord(data)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory record: %w", err)
	}
	return rec, nil
}

func (r *RedisStore) CompareAndSwap(ctx context.Context, rec *Record, expected int64) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal memory record: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, rec.ID)
		if err != nil {
			return err
		}
		if current != expected {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rec.ID, data, 0)
			return nil
		})
		return err
	}, rec.ID)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func storedVersion(ctx context.Context, tx *redis.Tx, id string) (int64, error) {
	data, err := tx.Get(ctx, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read memory record: %w", err)
	}

	var head struct {
		Version int64 `json:"version"`
	}
	if err := sonic.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("failed to read memory record version: %w", err)
	}
	return head.Version, nil
}

// Ping tests Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
