package handler

import (
	"context"

	"go.uber.org/zap"

	"dutree/internal/infrastructure/logging"
)

// contextKey is the type for context keys
type contextKey string

// AuthenticatedContextKey marks requests that presented a valid API key
const AuthenticatedContextKey contextKey = "authenticated"

// IsAuthenticated reports whether the auth middleware accepted the request's key
func IsAuthenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(AuthenticatedContextKey).(bool)
	return ok
}

// requestLogger returns the request-scoped logger, tagged with the request ID
func requestLogger(ctx context.Context) *zap.Logger {
	return logging.WithContext(ctx)
}
