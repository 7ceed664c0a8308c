package logging

import (
	"context"
	"log/slog"

	"romdata/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldProvider is the standardized structured logging key for metadata provider names.
	FieldProvider = "provider"
	// FieldRomID is the standardized structured logging key for library rom identifiers.
	FieldRomID = "rom_id"
	// FieldPlatform is the standardized structured logging key for platform slugs.
	FieldPlatform = "platform"
	// FieldSearchTerm is the standardized structured logging key for resolved search terms.
	FieldSearchTerm = "search_term"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags warnings and errors with a machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator reading the log.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if provider, ok := services.ProviderFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProvider, provider))
	}
	if id, ok := services.RomIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldRomID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
