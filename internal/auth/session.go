package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrSessionNotFound    = errors.New("auth: session not found")
)

// Session is the server-side record behind an issued token.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AccountID string    `json:"accountId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// TokenStore issues, validates and revokes bearer tokens.
type TokenStore interface {
	Issue(ctx context.Context, username, accountID string) (string, error)
	// Validate returns ok=false for unknown, revoked, expired or malformed tokens.
	// A non-nil error means the backend itself failed.
	Validate(ctx context.Context, token string) (Session, bool, error)
	Revoke(ctx context.Context, token string) error
}

// Backend keeps session records keyed by token id.
type Backend interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// Store is the TokenStore used by the API: signed JWTs whose jti indexes a Backend record.
type Store struct {
	signer  *Signer
	backend Backend
	clock   func() time.Time
}

type StoreOption func(*Store)

func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.clock = now }
}

func NewStore(signer *Signer, backend Backend, opts ...StoreOption) *Store {
	s := &Store{signer: signer, backend: backend, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is the lifetime of issued sessions.
func (s *Store) TTL() time.Duration { return s.signer.TTL() }

func (s *Store) Issue(ctx context.Context, username, accountID string) (string, error) {
	now := s.clock().UTC()
	token, claims, err := s.signer.Sign(now, username, accountID)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	sess := Session{
		ID:        claims.ID,
		Username:  username,
		AccountID: accountID,
		IssuedAt:  now,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if err := s.backend.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("auth: save session: %w", err)
	}
	return token, nil
}

func (s *Store) Validate(ctx context.Context, token string) (Session, bool, error) {
	now := s.clock()
	claims, err := s.signer.Verify(token, now)
	if err != nil {
		return Session{}, false, nil
	}
	sess, ok, err := s.backend.Load(ctx, claims.ID)
	if err != nil {
		return Session{}, false, fmt.Errorf("auth: load session: %w", err)
	}
	if !ok || sess.Expired(now) {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Revoke deletes the token's session. Revoking an unknown or already revoked token is not an error;
// a token that does not verify yields ErrSessionNotFound.
func (s *Store) Revoke(ctx context.Context, token string) error {
	claims, err := s.signer.Verify(token, s.clock())
	if err != nil {
		return ErrSessionNotFound
	}
	if err := s.backend.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}
