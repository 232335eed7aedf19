package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager(24 * time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	perms := PermissionSet{CanUpload: true, CanSeePreview: true}
	token, err := tm.Issue("alice", perms)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Username != "alice" {
		t.Errorf("username = %q, want alice", id.Username)
	}
	if id.Perms != perms {
		t.Errorf("perms = %+v, want %+v", id.Perms, perms)
	}
}

func TestTokenExpired(t *testing.T) {
	tm, err := NewTokenManager(-time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := tm.Issue("alice", AllPermissions())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = tm.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenTampered(t *testing.T) {
	tm, err := NewTokenManager(24 * time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := tm.Issue("alice", PermissionSet{CanDownload: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip a character inside the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	payload := []byte(parts[1])
	if payload[3] == 'A' {
		payload[3] = 'B'
	} else {
		payload[3] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := tm.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for tampered payload, got %v", err)
	}
}

func TestTokenFromDifferentSecret(t *testing.T) {
	tm1, _ := NewTokenManager(time.Hour)
	tm2, _ := NewTokenManager(time.Hour)

	token, err := tm1.Issue("alice", AllPermissions())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Simulates a server restart: the new secret rejects old tokens.
	if _, err := tm2.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid across secrets, got %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	tm, _ := NewTokenManager(time.Hour)

	for _, junk := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tm.Verify(junk); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q): expected ErrTokenInvalid, got %v", junk, err)
		}
	}
}
