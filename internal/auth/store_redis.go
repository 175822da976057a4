package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "cdrmock:session:"

// redisKV is the subset of the go-redis client the backend needs.
type redisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisBackend stores one key per session; Redis expires the key with the session.
type RedisBackend struct {
	rdb   redisKV
	clock func() time.Time
}

func NewRedisBackend(rdb redisKV, now func() time.Time) *RedisBackend {
	if now == nil {
		now = time.Now
	}
	return &RedisBackend{rdb: rdb, clock: now}
}

func sessionKey(id string) string { return redisSessionPrefix + id }

func (r *RedisBackend) Save(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(r.clock())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.rdb.Set(ctx, sessionKey(s.ID), b, ttl).Err()
}

func (r *RedisBackend) Load(ctx context.Context, id string) (Session, bool, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return s, true, nil
}

func (r *RedisBackend) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}
