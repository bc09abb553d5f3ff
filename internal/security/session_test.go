package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionRoundTrip(t *testing.T) {
	mgr := NewSessionManager("schooldir", testSecret, time.Hour)
	token, err := mgr.Mint("a@b.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	email, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "a@b.com" {
		t.Fatalf("expected subject a@b.com, got %q", email)
	}
}

func TestSessionExpiredDistinguishedFromInvalid(t *testing.T) {
	expired := NewSessionManager("schooldir", testSecret, -time.Minute)
	token, err := expired.Mint("a@b.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	verifier := NewSessionManager("schooldir", testSecret, time.Hour)
	if _, err := verifier.Verify(token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionRejectsWrongKey(t *testing.T) {
	minter := NewSessionManager("schooldir", testSecret, time.Hour)
	token, err := minter.Mint("a@b.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := NewSessionManager("schooldir", strings.Repeat("x", 32), time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong key, got %v", err)
	}
}

func TestSessionRejectsGarbage(t *testing.T) {
	mgr := NewSessionManager("schooldir", testSecret, time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := mgr.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid for %q, got %v", tok, err)
		}
	}
}

func TestSessionRejectsWrongIssuer(t *testing.T) {
	minter := NewSessionManager("someone-else", testSecret, time.Hour)
	token, err := minter.Mint("a@b.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	verifier := NewSessionManager("schooldir", testSecret, time.Hour)
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong issuer, got %v", err)
	}
}
