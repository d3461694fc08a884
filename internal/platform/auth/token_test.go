package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("test-secret", 24*time.Hour)
	accountID := uuid.New()

	tokenStr, err := issuer.Issue(accountID, "doctor")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := issuer.Parse(tokenStr)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.Subject != accountID.String() {
		t.Errorf("Subject = %q, want %q", claims.Subject, accountID.String())
	}
	if claims.Role != "doctor" {
		t.Errorf("Role = %q, want doctor", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("ExpiresAt not set")
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 24*time.Hour {
		t.Errorf("token lifetime = %v, want 24h", ttl)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewIssuer("secret-a", time.Hour)
	other := NewIssuer("secret-b", time.Hour)

	tokenStr, err := issuer.Issue(uuid.New(), "patient")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Parse(tokenStr); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestParse_Expired(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	tokenStr, err := issuer.Issue(uuid.New(), "patient")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := issuer.Parse(tokenStr); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParse_Malformed(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, tokenStr := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Parse(tokenStr); err == nil {
			t.Errorf("Parse(%q): expected error", tokenStr)
		}
	}
}

func TestParse_Tampered(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tokenStr, err := issuer.Issue(uuid.New(), "patient")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	// Flip a character in the payload segment
	tampered := []byte(tokenStr)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	if _, err := issuer.Parse(string(tampered)); err == nil {
		t.Error("expected error for tampered token")
	}
}
