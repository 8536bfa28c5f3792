package observability

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

const (
	ctxKeyTurnID ctxKey = "turn_id"
)

// basic global logger, JSON to stdout.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func Logger() *slog.Logger {
	return logger
}

// WithTurnID stores a turn_id in the context.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, ctxKeyTurnID, turnID)
}

// LoggerFromContext adds turn_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	turnID, _ := ctx.Value(ctxKeyTurnID).(string)
	if turnID == "" {
		return logger
	}
	return logger.With("turn_id", turnID)
}
