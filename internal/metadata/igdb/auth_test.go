package igdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"romdata/internal/cache"
	"romdata/internal/services"
)

func TestTokenExchangeAndCache(t *testing.T) {
	var exchanges int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		query := r.URL.Query()
		if query.Get("client_id") != "id" || query.Get("client_secret") != "secret" || query.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected params: %v", query)
		}
		w.Write([]byte(`{"access_token": "tok-1", "expires_in": 3600}`))
	}))
	defer server.Close()

	store := cache.NewMemory()
	m := NewTokenManager("id", "secret", server.URL, store, nil)

	token, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q", token)
	}

	// Second call serves from cache.
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("cached token: %v", err)
	}
	if exchanges != 1 {
		t.Fatalf("expected one exchange, got %d", exchanges)
	}

	// Invalidate forces a new exchange.
	m.Invalidate()
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("reissued token: %v", err)
	}
	if exchanges != 2 {
		t.Fatalf("expected second exchange, got %d", exchanges)
	}
}

func TestTokenExpiryMargin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"access_token": "tok", "expires_in": 60}`))
	}))
	defer server.Close()

	recorder := &recordingCache{}
	m := NewTokenManager("id", "secret", server.URL, recorder, nil)
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if recorder.lastTTL != 60*time.Second-tokenExpiryMargin {
		t.Fatalf("ttl = %v", recorder.lastTTL)
	}
}

func TestTokenMissingCredentials(t *testing.T) {
	m := NewTokenManager("", "", "http://unused.invalid", cache.NewMemory(), nil)
	_, err := m.Token(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTokenRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	m := NewTokenManager("id", "bad", server.URL, cache.NewMemory(), nil)
	_, err := m.Token(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTokenEndpointUnreachable(t *testing.T) {
	m := NewTokenManager("id", "secret", "http://127.0.0.1:1", cache.NewMemory(), nil)
	_, err := m.Token(context.Background())
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestStaticTokenBypassesExchange(t *testing.T) {
	m := NewTokenManager("", "", "", nil, nil, WithStaticToken("static"))
	token, err := m.Token(context.Background())
	if err != nil || token != "static" {
		t.Fatalf("token = %q, %v", token, err)
	}
	m.Invalidate()
	if token, _ := m.Token(context.Background()); token != "static" {
		t.Fatalf("static token lost after invalidate: %q", token)
	}
}

type recordingCache struct {
	lastTTL time.Duration
	value   string
}

func (r *recordingCache) Get(string) (string, bool) { return "", false }
func (r *recordingCache) Set(_, value string, ttl time.Duration) {
	r.value = value
	r.lastTTL = ttl
}
func (r *recordingCache) Delete(string) {}
