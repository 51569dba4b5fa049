package net_test

import (
	"bytes"
	"context"
	"testing"

	"pimms/internal/platform/logger"
	pnet "pimms/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWithRequest(t *testing.T) {
	ctx := pnet.WithRequest(context.Background(), "req-123", "ws_1")

	require.Equal(t, "req-123", pnet.RequestID(ctx))
	require.Equal(t, "req-123", chimw.GetReqID(ctx))
	require.Equal(t, "ws_1", logger.WorkspaceID(ctx))

	var buf bytes.Buffer
	base := zerolog.New(&buf)
	logger.With(ctx, &base).Info().Msg("x")
	require.Contains(t, buf.String(), `"request_id":"req-123"`)
	require.Contains(t, buf.String(), `"workspace_id":"ws_1"`)
}

func TestRequestID_Sources(t *testing.T) {
	require.Empty(t, pnet.RequestID(context.Background()))

	chiOnly := context.WithValue(context.Background(), chimw.RequestIDKey, "chi-1")
	require.Equal(t, "chi-1", pnet.RequestID(chiOnly))

	logOnly := logger.WithRequest(context.Background(), "log-1", "")
	require.Equal(t, "log-1", pnet.RequestID(logOnly))

	wsOnly := pnet.WithRequest(context.Background(), "", "ws_2")
	require.Empty(t, pnet.RequestID(wsOnly))
	require.Equal(t, "ws_2", logger.WorkspaceID(wsOnly))
}
