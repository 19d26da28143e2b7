package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	tok, err := tm.GenerateToken("user-123", "customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := tm.ParseToken(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("subject = %s, want user-123", got)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	tok, err := tm.GenerateToken("user-123", "customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := other.ParseToken(tok); err == nil {
		t.Fatalf("expected invalid token error")
	}
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	tok, err := tm.GenerateToken("user-123", "customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tm.ParseToken(tok); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	if _, err := tm.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
