package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	stageKey contextKey = "stage"
	fileKey  contextKey = "file"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithFile annotates context with the input file currently being processed.
func WithFile(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, fileKey, path)
}

// FileFromContext returns the input file path if present.
func FileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
