// Package net carries request scoped ids across transports
package net

import (
	"context"

	"pimms/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequest stores the request id where chi and the logger both read it
// workspaceID is optional and only reaches the logger
func WithRequest(ctx context.Context, reqID, workspaceID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return logger.WithRequest(ctx, reqID, workspaceID)
}

// RequestID returns the request id on ctx, empty when absent
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return logger.RequestID(ctx)
}
