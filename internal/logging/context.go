package logging

import (
	"context"
	"log/slog"

	"murmur/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one batch invocation.
	FieldRunID = "run_id"
	// FieldFile is the input media file currently being processed.
	FieldFile = "file"
	// FieldStage is the per-file lifecycle stage.
	FieldStage = "stage"
	// FieldModel names the recognition model in use.
	FieldModel = "model"
	// FieldLanguage is the language selector passed to the engine.
	FieldLanguage = "language"
	// FieldEventType classifies log lines for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressPercent carries download or processing progress.
	FieldProgressPercent = "progress_percent"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if file, ok := services.FileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, file))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
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
	return logger.With(Args(fields...)...)
}
