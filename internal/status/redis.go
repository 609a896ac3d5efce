package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/IshaanNene/dealcard/internal/types"
)

// RedisStore keeps entries in one redis hash so that several processes
// share the same view. The hash expires ttl after its last write.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore parses redisURL and verifies connectivity.
func NewRedisStore(ctx context.Context, redisURL, prefix string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    hashKey(prefix),
		ttl:    ttl,
		logger: logger.With("component", "redis_status"),
	}, nil
}

func hashKey(prefix string) string {
	if prefix == "" {
		prefix = "dealcard"
	}
	return prefix + ":processing"
}

func (s *RedisStore) put(ctx context.Context, e *Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, e.ID, b)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s: %w", e.ID, err)
	}
	return nil
}

func (s *RedisStore) Begin(ctx context.Context, url string) (string, error) {
	e := &Entry{ID: uuid.NewString(), URL: url, State: StateProcessing, StartedAt: time.Now()}
	if err := s.put(ctx, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

func (s *RedisStore) Finish(ctx context.Context, id, errMsg string) error {
	raw, err := s.client.HGet(ctx, s.key, id).Bytes()
	if err != nil {
		return fmt.Errorf("redis read %s: %w", id, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return fmt.Errorf("decode status entry %s: %w", id, err)
	}
	finish(&e, errMsg, time.Now())
	return s.put(ctx, &e)
}

func (s *RedisStore) Snapshot(ctx context.Context) (types.QueueStatus, error) {
	vals, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return types.QueueStatus{}, fmt.Errorf("redis snapshot: %w", err)
	}
	entries := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			s.logger.Warn("skipping undecodable status entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return tally(entries), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
