package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"romdata/internal/services"
)

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	NewComponentLogger(logger, "igdb").Info("search complete", Int("matches", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO igdb: search complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "matches=3") {
		t.Fatalf("missing attr in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be promoted, got %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("lookup", String("search_term", "Super Game"))

	if !strings.Contains(buf.String(), `search_term="Super Game"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithProvider(ctx, "moby")
	ctx = services.WithRomID(ctx, 42)

	WithContext(ctx, logger).Info("resolved")

	line := buf.String()
	for _, want := range []string{"correlation_id=req-1", "provider=moby", "rom_id=42"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}
