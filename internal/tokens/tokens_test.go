package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Vukotije/audiotheca/internal/app/domain/user"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	u := user.User{ID: "user-1", Username: "alice", Role: user.RoleProducer}
	token, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != "producer" {
		t.Fatalf("expected role producer, got %q", claims.Role)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-a", time.Hour).Issue(user.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewIssuer("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)
	if issuer.ttl != -time.Minute {
		t.Fatalf("negative ttl must pass through, got %v", issuer.ttl)
	}

	token, err := issuer.Issue(user.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		t.Fatalf("parse without validation: %v", err)
	}
	exp := parsed.Claims.(*Claims).ExpiresAt
	if exp == nil || !exp.Before(time.Now()) {
		t.Fatalf("token should carry a past expiry, got %v", exp)
	}
}

func TestZeroTTLDefaults(t *testing.T) {
	if issuer := NewIssuer("test-secret", 0); issuer.ttl != 24*time.Hour {
		t.Fatalf("expected 24h default, got %v", issuer.ttl)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
