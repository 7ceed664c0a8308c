package igdb

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"romdata/internal/logging"
	"romdata/internal/services"
)

func TestQueryRetriesOnceAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Super Game"}]`))
	}))
	defer server.Close()

	tokens := NewTokenManager("", "", "", nil, nil, WithStaticToken("tok"))
	provider := New(server.URL, tokens, nil, nil, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	rom, err := provider.RomByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if !rom.Matched() {
		t.Fatalf("retry did not recover: %+v", rom)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestQueryLogsCarryCorrelationID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	tokens := NewTokenManager("", "", "", nil, nil, WithStaticToken("tok"))
	provider := New(server.URL, tokens, nil, logger, WithHTTPClient(server.Client()))

	ctx := services.WithRequestID(context.Background(), "req-1234")
	if _, err := provider.RomByID(ctx, 1); err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"req-1234"`) {
		t.Fatalf("correlation id missing from logs: %q", output)
	}
}

func TestQueryDegradesAfterSecondTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	tokens := NewTokenManager("", "", "", nil, nil, WithStaticToken("tok"))
	provider := New(server.URL, tokens, nil, nil, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	rom, err := provider.RomByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if rom.Matched() {
		t.Fatalf("rom = %+v", rom)
	}
}
