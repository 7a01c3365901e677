package logging

import (
	"context"

	"go.uber.org/zap"
)

// Context key types
type runCtxKey struct{}
type sprintCtxKey struct{}

// WithRunID attaches a run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext extracts the run identifier, or "".
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(runCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// WithSprint attaches the current sprint number to the context.
func WithSprint(ctx context.Context, sprint int) context.Context {
	return context.WithValue(ctx, sprintCtxKey{}, sprint)
}

// SprintFromContext extracts the sprint number, or 0.
func SprintFromContext(ctx context.Context) int {
	if v, ok := ctx.Value(sprintCtxKey{}).(int); ok {
		return v
	}
	return 0
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if sprint := SprintFromContext(ctx); sprint > 0 {
		fields = append(fields, zap.Int("sprint", sprint))
	}
	return fields
}
