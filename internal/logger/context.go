package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey string

const (
	sessionIDKey ctxKey = "session_id"
	dashboardKey ctxKey = "dashboard"
)

// WithSessionID tags the context with a correlation id. An empty id gets a
// fresh uuid.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func SessionIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

func WithDashboard(ctx context.Context, dashboard string) context.Context {
	return context.WithValue(ctx, dashboardKey, dashboard)
}

func DashboardFrom(ctx context.Context) string {
	if v, ok := ctx.Value(dashboardKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns the global logger with session_id and dashboard attached
// when present.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if id := SessionIDFrom(ctx); id != "" {
		l = l.With(zap.String("session_id", id))
	}
	if d := DashboardFrom(ctx); d != "" {
		l = l.With(zap.String("dashboard", d))
	}
	return l
}
