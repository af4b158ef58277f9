package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storyreel/types"
)

const renderKeyPrefix = "render:"

// RedisStore keeps RenderResult records as JSON values with a TTL, so
// finished renders age out on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStoreFromEnv connects using REDIS_ADDR, REDIS_PASS, REDIS_DB and
// RENDER_TTL_SECONDS, verifying the connection with a ping.
func NewRedisStoreFromEnv(ctx context.Context) (*RedisStore, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	ttl := 24 * time.Hour
	if v := os.Getenv("RENDER_TTL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Create(ctx context.Context, res *types.RenderResult) error {
	return s.save(ctx, res)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*types.RenderResult, error) {
	raw, err := s.client.Get(ctx, renderKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var res types.RenderResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode render result %s: %w", id, err)
	}
	return &res, nil
}

func (s *RedisStore) Advance(ctx context.Context, id string, next types.RenderStatus) error {
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := applyAdvance(res, next); err != nil {
		return err
	}
	return s.save(ctx, res)
}

func (s *RedisStore) Complete(ctx context.Context, id, artifactURL string) error {
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := applyAdvance(res, types.StatusCompleted); err != nil {
		return err
	}
	res.ArtifactURL = artifactURL
	return s.save(ctx, res)
}

func (s *RedisStore) Fail(ctx context.Context, id, detail string) error {
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := applyFail(res, detail); err != nil {
		return err
	}
	return s.save(ctx, res)
}

func (s *RedisStore) save(ctx context.Context, res *types.RenderResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, renderKeyPrefix+res.ID, raw, s.ttl).Err()
}

// Close releases the underlying connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
