package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"cdr-mock/pkg/logger"
)

// Repository is the persistence contract for audit events. It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records audit events. A nil *Service is valid and records nothing.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogSession records a login, failed login or logout. Failures to record are logged and
// swallowed.
func (s *Service) LogSession(ctx context.Context, typ EventType, accountID, username, ip string) {
	s.bestEffort(ctx, Event{
		Type:      typ,
		AccountID: accountID,
		Username:  username,
		IPAddress: ip,
	})
}

// LogPublish records a batch pushed to the broker.
func (s *Service) LogPublish(ctx context.Context, accountID, username, ip, topic string, count int) {
	s.bestEffort(ctx, Event{
		Type:      EventTypeBrokerPublish,
		AccountID: accountID,
		Username:  username,
		IPAddress: ip,
		Topic:     topic,
		Count:     count,
		Message:   "records published",
	})
}

func (s *Service) bestEffort(ctx context.Context, e Event) {
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", e.Type, "err", err)
	}
}
