package logging

import (
	"context"
	"log/slog"

	"veracity/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldArticleID is the standardized structured logging key for article identifiers.
	FieldArticleID = "article_id"
	// FieldJobID is the standardized structured logging key for external job identifiers.
	FieldJobID = "job_id"
	// FieldState is the standardized structured logging key for job states.
	FieldState = "state"
	// FieldAttempt is the standardized structured logging key for poll attempt counters.
	FieldAttempt = "attempt"
	// FieldEventType tags log lines for machine filtering.
	FieldEventType = "event_type"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.ArticleIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldArticleID, id))
	}
	if jobID, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, jobID))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
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
