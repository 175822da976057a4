package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rdb := newFakeRedis()
	b := NewRedisBackend(rdb, func() time.Time { return now })
	ctx := context.Background()

	s := Session{ID: "abc", Username: "admin", AccountID: "default", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := b.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := rdb.ttls[redisSessionPrefix+"abc"]; got != time.Hour {
		t.Fatalf("expected key ttl 1h, got %v", got)
	}

	got, ok, err := b.Load(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Username != "admin" || !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := b.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := b.Load(ctx, "abc"); ok || err != nil {
		t.Fatalf("expected missing session, ok=%v err=%v", ok, err)
	}
}

func TestRedisBackend_SkipsExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rdb := newFakeRedis()
	b := NewRedisBackend(rdb, func() time.Time { return now })

	s := Session{ID: "old", ExpiresAt: now.Add(-time.Second)}
	if err := b.Save(context.Background(), s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(rdb.data) != 0 {
		t.Fatalf("expected expired session not to be written")
	}
}
