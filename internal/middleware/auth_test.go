package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/tokens"
)

func newAuthHandler(t *testing.T) (http.Handler, *tokens.Issuer) {
	t.Helper()
	issuer := tokens.NewIssuer("test-secret", time.Hour)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User-ID", GetUserID(r.Context()))
		w.Header().Set("X-User-Role", GetUserRole(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	return NewAuthMiddleware(issuer, nil).Handler(inner), issuer
}

func TestAuthMiddlewarePassesAnonymous(t *testing.T) {
	handler, _ := newAuthHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("X-User-ID") != "" {
		t.Fatal("anonymous request should carry no identity")
	}
}

func TestAuthMiddlewareResolvesIdentity(t *testing.T) {
	handler, issuer := newAuthHandler(t)

	token, err := issuer.Issue(user.User{ID: "u1", Role: user.RoleProducer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("X-User-ID"); got != "u1" {
		t.Fatalf("expected user id u1, got %q", got)
	}
	if got := resp.Header().Get("X-User-Role"); got != "producer" {
		t.Fatalf("expected role producer, got %q", got)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	handler, _ := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	handler, _ := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
