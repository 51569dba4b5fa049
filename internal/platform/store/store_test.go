package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOpen_NothingEnabled(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(context.Background(), Config{}, WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	require.Nil(t, s.PG)
	require.Nil(t, s.CH)
	require.Nil(t, s.RDS)
	require.Nil(t, s.Bus)

	s.Log.Info().Msg("hello")
	require.Contains(t, buf.String(), "hello")

	require.NoError(t, s.Guard(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}

func TestOpen_OptionErrorStops(t *testing.T) {
	boom := errors.New("boom")
	s, err := Open(context.Background(), Config{}, func(*Store) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Nil(t, s)
}

func TestOpen_ClickhouseIsLazy(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{CH: CHConfig{Enabled: true, URL: "clickhouse://localhost:9000/default"}})
	require.NoError(t, err)
	require.NotNil(t, s.CH)
	require.Nil(t, s.PG)
	require.NoError(t, s.Close(ctx))
}

func TestOpen_BadPostgresURL(t *testing.T) {
	s, err := Open(context.Background(), Config{
		PG: PGConfig{Enabled: true, URL: "://bad"},
		CH: CHConfig{Enabled: true, URL: "clickhouse://localhost:9000/default"},
	})
	require.Error(t, err)
	require.Nil(t, s)
}

func TestOpen_RedisGuarded(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, Config{RDS: RedisConfig{Enabled: true, Addr: mr.Addr()}})
	require.NoError(t, err)
	require.NotNil(t, s.RDS)
	require.NoError(t, s.Guard(ctx))

	mr.Close()
	err = s.Guard(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis: ")
	require.NoError(t, s.Close(ctx))
}

func TestOpen_RedisUnreachableClosesOpened(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	s, err := Open(context.Background(), Config{
		CH:  CHConfig{Enabled: true, URL: "clickhouse://localhost:9000/default"},
		RDS: RedisConfig{Enabled: true, Addr: addr},
	})
	require.Error(t, err)
	require.Nil(t, s)
}

type pingDB struct {
	TxRunner
	err error
}

func (p pingDB) Ping(context.Context) error { return p.err }

func TestGuard_PrefixesBackend(t *testing.T) {
	var nilStore *Store
	require.Error(t, nilStore.Guard(context.Background()))

	s := &Store{PG: pingDB{}}
	require.NoError(t, s.Guard(context.Background()))

	s = &Store{PG: pingDB{err: errors.New("conn refused")}}
	require.EqualError(t, s.Guard(context.Background()), "pg: conn refused")
}
