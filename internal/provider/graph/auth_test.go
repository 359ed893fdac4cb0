package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func tokenServer(t *testing.T, calls *atomic.Int32, expiresIn int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "token-" + string(rune('0'+n)),
			ExpiresIn:   expiresIn,
			TokenType:   "Bearer",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenSource_RequestsClientCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		want := map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     "test-client-id",
			"client_secret": "test-client-secret",
			"scope":         defaultScope,
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("%s: got %q, want %q", k, got, v)
			}
		}

		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "test-access-token", ExpiresIn: 3600})
	}))
	defer server.Close()

	ts := newTokenSource(server.URL, "test-client-id", "test-client-secret", server.Client())

	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "test-access-token" {
		t.Errorf("token: got %q, want %q", token, "test-access-token")
	}
}

func TestTokenSource_CachesUntilExpiry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := tokenServer(t, &calls, 3600)

	ts := newTokenSource(server.URL, "id", "secret", server.Client())
	now := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := ts.Token(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("token requests: got %d, want 1", got)
	}

	// Past expires_in minus the buffer.
	now = now.Add(56 * time.Minute)
	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "token-2" {
		t.Errorf("token after expiry: got %q, want %q", token, "token-2")
	}
}

func TestTokenSource_InvalidateRefetches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := tokenServer(t, &calls, 3600)
	ts := newTokenSource(server.URL, "id", "secret", server.Client())

	first, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := ts.Invalidate(context.Background(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second == first {
		t.Error("expected a new token after invalidation")
	}

	// A caller still holding the first token does not force another fetch.
	third, err := ts.Invalidate(context.Background(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third != second || calls.Load() != 2 {
		t.Errorf("got token %q after %d requests, want %q after 2", third, calls.Load(), second)
	}
}

func TestTokenSource_ConcurrentCallersShareToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := tokenServer(t, &calls, 3600)
	ts := newTokenSource(server.URL, "id", "secret", server.Client())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ts.Token(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("token requests: got %d, want 1", got)
	}
}

func TestTokenSource_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_client"}`))
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"expires_in":3600}`))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			ts := newTokenSource(server.URL, "id", "secret", server.Client())
			if _, err := ts.Token(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTokenSource_ContextCancelled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := tokenServer(t, &calls, 3600)
	ts := newTokenSource(server.URL, "id", "secret", server.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ts.Token(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
