package pg

import (
	"context"
	"strings"
	"unicode/utf8"

	"pimms/internal/platform/logger"

	"github.com/rs/zerolog"
)

// maxArgLen caps string arguments in query logs, webhook payloads run to 64KiB
const maxArgLen = 96

// QueryEvent is one traced statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement at info, slow ones at warn
// it runs at debug level regardless of the root level since LogSQL asked for it
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	log := logger.With(ctx, &z.log)
	evt := log.Info()
	if ev.Slow {
		evt = log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", shortArgs(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds whitespace runs into one space
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// shortArgs truncates long text and byte arguments
func shortArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			out[i] = clip(v)
		case []byte:
			out[i] = clip(string(v))
		default:
			out[i] = a
		}
	}
	return out
}

func clip(s string) string {
	if len(s) <= maxArgLen {
		return s
	}
	cut := maxArgLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
