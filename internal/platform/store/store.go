// Package store opens the backends pimms talks to and exposes narrow seams over them
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pimms/internal/platform/logger"
	"pimms/internal/platform/store/bus"
)

// Store holds whichever backends Open enabled, the others stay nil
type Store struct {
	// Log is handed to drivers that trace, the zero value discards
	Log logger.Logger

	PG  TxRunner
	CH  Clickhouse
	RDS redis.UniversalClient
	Bus *bus.Bus
}

// Row is one result row
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set, Close must be called
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what an Exec touched
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos bind to, a pool or a transaction
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also open a transaction
// fn's error rolls back, nil commits
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse appends click rows and reads them back
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger reports reachability
type Pinger interface{ Ping(context.Context) error }

// Option adjusts a Store before any backend opens
type Option func(*Store) error

// WithLogger sets Store.Log
func WithLogger(l logger.Logger) Option {
	return func(s *Store) error {
		s.Log = l
		return nil
	}
}

// Open connects the backends enabled in cfg in order pg, clickhouse, redis, nats
// on failure whatever already opened is closed
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	steps := []struct {
		on   bool
		open func() error
	}{
		{cfg.PG.Enabled, func() (err error) { s.PG, err = openPG(ctx, cfg, s); return }},
		{cfg.CH.Enabled, func() (err error) { s.CH, err = openCH(ctx, cfg, s); return }},
		{cfg.RDS.Enabled, func() (err error) { s.RDS, err = openRDS(ctx, cfg); return }},
		{cfg.NATS.Enabled, func() (err error) { s.Bus, err = openBus(ctx, cfg); return }},
	}
	for _, step := range steps {
		if !step.on {
			continue
		}
		if err := step.open(); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

type backend struct {
	name string
	p    Pinger
}

// backends lists the opened backends that can be pinged
func (s *Store) backends() []backend {
	var out []backend
	if p, ok := s.PG.(Pinger); ok {
		out = append(out, backend{"pg", p})
	}
	if p, ok := s.CH.(Pinger); ok {
		out = append(out, backend{"ch", p})
	}
	if s.RDS != nil {
		out = append(out, backend{"redis", redisPinger{s.RDS}})
	}
	if s.Bus != nil {
		out = append(out, backend{"nats", s.Bus})
	}
	return out
}

type redisPinger struct{ c redis.UniversalClient }

func (r redisPinger) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Guard pings every opened backend and joins the failures, each prefixed with its name
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for _, b := range s.backends() {
		if err := b.p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes the opened backends, nats first and postgres last
func (s *Store) Close(_ context.Context) error {
	var errs []error
	if s.Bus != nil {
		errs = append(errs, s.Bus.Close())
	}
	if s.RDS != nil {
		errs = append(errs, s.RDS.Close())
	}
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
