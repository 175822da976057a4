package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *MemoryBackend, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	signer, err := NewSigner("secret", "cdr-mock", time.Hour)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	backend := NewMemoryBackend(clk.Now)
	return NewStore(signer, backend, WithStoreClock(clk.Now)), backend, clk
}

func TestStore_IssueValidateRevoke(t *testing.T) {
	store, backend, _ := newTestStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, "admin", "default")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if backend.Len() != 1 {
		t.Fatalf("expected 1 stored session, got %d", backend.Len())
	}

	sess, ok, err := store.Validate(ctx, tok)
	if err != nil || !ok {
		t.Fatalf("validate: ok=%v err=%v", ok, err)
	}
	if sess.Username != "admin" || sess.AccountID != "default" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if got := sess.ExpiresAt.Sub(sess.IssuedAt); got != time.Hour {
		t.Fatalf("expected 1h session, got %v", got)
	}

	if err := store.Revoke(ctx, tok); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, ok, _ := store.Validate(ctx, tok); ok {
		t.Fatalf("expected revoked token to be invalid")
	}
	if err := store.Revoke(ctx, tok); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
}

func TestStore_ExpiresAfterOneHour(t *testing.T) {
	store, _, clk := newTestStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, "admin", "default")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clk.Advance(59 * time.Minute)
	if _, ok, _ := store.Validate(ctx, tok); !ok {
		t.Fatalf("expected token valid before expiry")
	}
	clk.Advance(time.Minute)
	if _, ok, _ := store.Validate(ctx, tok); ok {
		t.Fatalf("expected token invalid at expiry")
	}
}

func TestStore_RejectsGarbage(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Validate(ctx, "not-a-token"); ok || err != nil {
		t.Fatalf("expected ok=false err=nil, got ok=%v err=%v", ok, err)
	}
	if err := store.Revoke(ctx, "not-a-token"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryBackend_Sweep(t *testing.T) {
	store, backend, clk := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Issue(ctx, "admin", "default"); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}
	clk.Advance(30 * time.Minute)
	if _, err := store.Issue(ctx, "analyst", "default"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	clk.Advance(31 * time.Minute)
	if n := backend.Sweep(); n != 3 {
		t.Fatalf("expected 3 swept, got %d", n)
	}
	if backend.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", backend.Len())
	}
}

func TestMemoryBackend_RunStopsOnCancel(t *testing.T) {
	backend := NewMemoryBackend(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		backend.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop")
	}
}
