package opensubtitles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:   "key",
		Username: "user",
		Password: "pass",
		BaseURL:  url,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestLoginCachesTokenAcrossRequests(t *testing.T) {
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			logins++
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		case "/subtitles":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				t.Errorf("unexpected bearer token: %q", r.Header.Get("Authorization"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.Search(context.Background(), 1); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := c.Search(context.Background(), 1); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if logins != 1 {
		t.Fatalf("logins = %d, want 1 (token should be cached)", logins)
	}
}

// TestAuthenticatedRetriesOnceAfterStaleToken seeds the client with a token
// acquired before the call starts; a 401 on that stale token must trigger
// exactly one re-login and retry.
func TestAuthenticatedRetriesOnceAfterStaleToken(t *testing.T) {
	logins := 0
	rejectedOnce := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			logins++
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-fresh"})
		case "/subtitles":
			if !rejectedOnce {
				rejectedOnce = true
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.token = &cachedToken{acquiredAt: time.Now().Add(-time.Hour), token: "tok-stale"}

	if _, err := c.Search(context.Background(), 1); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if logins != 1 {
		t.Fatalf("logins = %d, want 1 (exactly one re-login after 401)", logins)
	}
}

// TestAuthenticatedSurfacesAuthFailureWhenFreshTokenRejected seeds a token
// acquired "in the future" relative to the query start, simulating a token
// a concurrent caller just refreshed; a 401 against it must not trigger
// another login (that would livelock against a catalog that is just down).
func TestAuthenticatedSurfacesAuthFailureWhenFreshTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.token = &cachedToken{acquiredAt: time.Now().Add(time.Hour), token: "tok-future"}

	_, err := c.Search(context.Background(), 1)
	if err == nil {
		t.Fatal("expected an auth error")
	}
}
