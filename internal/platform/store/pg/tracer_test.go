package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pimms/internal/platform/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCompact(t *testing.T) {
	cases := map[string]string{
		"select 1":                               "select 1",
		"  select   1  ":                         "select 1",
		"SELECT\t*\nFROM\r\tcustomers WHERE  a=1": "SELECT * FROM customers WHERE a=1",
		"":                                       "",
	}
	for in, want := range cases {
		require.Equal(t, want, compact(in), "compact(%q)", in)
	}
}

func TestShortArgs(t *testing.T) {
	long := strings.Repeat("x", maxArgLen+40)
	got := shortArgs([]any{1, "ws_1", long, []byte(long), nil})

	require.Equal(t, 1, got[0])
	require.Equal(t, "ws_1", got[1])
	require.Equal(t, strings.Repeat("x", maxArgLen)+"...", got[2])
	require.Equal(t, strings.Repeat("x", maxArgLen)+"...", got[3])
	require.Nil(t, got[4])
	require.Empty(t, shortArgs(nil))
}

func TestClip_KeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", maxArgLen-1) + "é" + "tail"
	out := clip(s)
	require.True(t, strings.HasSuffix(out, "..."))
	require.Equal(t, strings.Repeat("a", maxArgLen-1)+"...", out)
}

type line struct {
	Level     string  `json:"level"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Slow      bool    `json:"slow"`
	SQL       string  `json:"sql"`
	Args      []any   `json:"args"`
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	Component string  `json:"component"`
	RequestID string  `json:"request_id"`
	Workspace string  `json:"workspace_id"`
}

func decode(t *testing.T, buf *bytes.Buffer) line {
	t.Helper()
	var l line
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &l), buf.String())
	buf.Reset()
	return l
}

func TestTracer_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))

	ctx := logger.WithRequest(context.Background(), "req-1", "ws_1")
	tr.OnQuery(ctx, QueryEvent{
		SQL:       "SELECT *\n  FROM customers WHERE id = $1",
		Args:      []any{"cus_1"},
		ElapsedUS: 12345,
		Err:       errors.New("boom"),
	})
	l := decode(t, &buf)
	require.Equal(t, "info", l.Level)
	require.Equal(t, "pg query", l.Message)
	require.Equal(t, "pg", l.Component)
	require.Equal(t, "SELECT * FROM customers WHERE id = $1", l.SQL)
	require.InDelta(t, 12.345, l.ElapsedMS, 1e-9)
	require.Equal(t, []any{"cus_1"}, l.Args)
	require.Equal(t, "boom", l.Error)
	require.Equal(t, "req-1", l.RequestID)
	require.Equal(t, "ws_1", l.Workspace)

	tr.OnQuery(context.Background(), QueryEvent{SQL: "select 1", ElapsedUS: 900000, Slow: true})
	l = decode(t, &buf)
	require.Equal(t, "warn", l.Level)
	require.True(t, l.Slow)
	require.Empty(t, l.RequestID)
}
