package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, m *CORSMiddleware, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(method, "/genres", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	m.Handler(next).ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowAll(t *testing.T) {
	m := NewCORSMiddleware([]string{"*"})

	rec := corsRequest(t, m, http.MethodGet, "https://anywhere.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Fatalf("expected origin to be echoed, got %q", got)
	}
}

func TestCORSOriginMatching(t *testing.T) {
	m := NewCORSMiddleware([]string{"https://app.example.com", "example.org"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://example.org", true},
		{"https://www.example.org", true},
		{"https://evil-example.org", false},
		{"https://example.org.evil.com", false},
		{"https://app.example.com.evil.com", false},
		{"https://other.example.com", false},
	}

	for _, tt := range tests {
		rec := corsRequest(t, m, http.MethodGet, tt.origin)
		got := rec.Header().Get("Access-Control-Allow-Origin")
		if tt.want && got != tt.origin {
			t.Fatalf("origin %q should be allowed, got header %q", tt.origin, got)
		}
		if !tt.want && got != "" {
			t.Fatalf("origin %q should be rejected, got header %q", tt.origin, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	m := NewCORSMiddleware([]string{"https://app.example.com"})

	rec := corsRequest(t, m, http.MethodOptions, "https://app.example.com")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("expected allow-methods header on preflight")
	}
}

func TestCORSNoOriginHeader(t *testing.T) {
	m := NewCORSMiddleware([]string{"https://app.example.com"})

	rec := corsRequest(t, m, http.MethodGet, "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers without an Origin, got %q", got)
	}
}
