package auth

import (
	"context"
	"sync"
	"time"

	"cdr-mock/internal/metrics"
	"cdr-mock/pkg/logger"
)

// MemoryBackend keeps sessions in a process-local map. Expired entries are dropped by Sweep.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[string]Session
	clock    func() time.Time
}

func NewMemoryBackend(now func() time.Time) *MemoryBackend {
	if now == nil {
		now = time.Now
	}
	return &MemoryBackend{sessions: make(map[string]Session), clock: now}
}

func (m *MemoryBackend) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return nil
}

func (m *MemoryBackend) Load(_ context.Context, id string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false, nil
	}
	if s.Expired(m.clock()) {
		delete(m.sessions, id)
		metrics.SessionsActive.Set(float64(len(m.sessions)))
		return Session{}, false, nil
	}
	return s, true, nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return nil
}

// Len is the number of stored sessions, expired ones included until the next sweep.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *MemoryBackend) Sweep() int {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (m *MemoryBackend) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				logger.From(ctx).Debug("sessions swept", "expired", n)
			}
		}
	}
}
