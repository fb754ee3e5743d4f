package logging

import (
	"context"
	"log/slog"

	"tsutils/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOperation is the standardized structured logging key for the public operation (info, stream, props, ...).
	FieldOperation = "operation"
	// FieldInput is the standardized structured logging key for the recording being processed.
	FieldInput = "input"
	// FieldOutput is the file or directory an operation wrote.
	FieldOutput = "output"
	// FieldRequestID is the standardized structured logging key for per-invocation correlation identifiers.
	FieldRequestID = "request_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the user.
	FieldErrorHint = "error_hint"
	// FieldDecisionType names the decision a log line explains.
	FieldDecisionType = "decision_type"
	// FieldProgressStage is the stage name on progress log lines.
	FieldProgressStage = "progress_stage"
	// FieldProgressPercent is the completion percentage on progress log lines.
	FieldProgressPercent = "progress_percent"
	// FieldProgressMessage is the human summary on progress log lines.
	FieldProgressMessage = "progress_message"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
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
