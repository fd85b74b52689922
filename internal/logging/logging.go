// Package logging provides the context-scoped structured logger used
// throughout the server. It replaces the teacher's
// sigs.k8s.io/controller-runtime/pkg/log ("ctrllog") wrapper — which exists
// to thread a logr.Logger through a controller-runtime reconcile context —
// with a direct go-logr/logr + go-logr/zapr pairing, since this server has
// no controller-runtime manager to borrow the convenience from. The facade
// (attach a logr.Logger to a context, retrieve it with a safe discard
// fallback) is otherwise the same idiom.
package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

type contextKey struct{}

// New builds the process-wide base logger from the configured level name
// (DEBUG, INFO, WARN, ERROR — see pkg/env.LogLevel).
func New(levelName string) logr.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = parseLevel(levelName)
	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}
	return zapr.NewLogger(zl)
}

func parseLevel(name string) zap.AtomicLevel {
	var lvl zap.AtomicLevel
	switch name {
	case "DEBUG":
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "WARN":
		lvl = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "ERROR":
		lvl = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return lvl
}

// IntoContext attaches a logger to ctx, retrievable with FromContext.
func IntoContext(ctx context.Context, log logr.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger attached to ctx, or a discarding logger
// if none was attached.
func FromContext(ctx context.Context) logr.Logger {
	if log, ok := ctx.Value(contextKey{}).(logr.Logger); ok {
		return log
	}
	return logr.Discard()
}
