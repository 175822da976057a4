package auth

import (
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	s, err := NewSigner("secret", "issuer", time.Hour)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, claims, err := s.Sign(now, "admin", "default")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if tok == "" || claims.ID == "" {
		t.Fatalf("expected token and jti")
	}

	got, err := s.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Username != "admin" || got.AccountID != "default" || got.ID != claims.ID {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s, _ := NewSigner("secret", "", time.Hour)
	now := time.Unix(1700000000, 0).UTC()
	tok, _, err := s.Sign(now, "admin", "default")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(tok, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsForeignSecretAndIssuer(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	a, _ := NewSigner("secret-a", "issuer", time.Hour)
	b, _ := NewSigner("secret-b", "issuer", time.Hour)
	c, _ := NewSigner("secret-a", "other", time.Hour)

	tok, _, err := a.Sign(now, "admin", "default")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := b.Verify(tok, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	if _, err := c.Verify(tok, now); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("", "", time.Hour); err == nil {
		t.Fatalf("expected error")
	}
}
