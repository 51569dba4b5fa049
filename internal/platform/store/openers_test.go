package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"pimms/internal/platform/store/pg"
	"pimms/internal/platform/testkit"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// closedPortURL parses fine and the lazy pool never dials it unless pinged
const closedPortURL = "postgres://u:p@127.0.0.1:1/db?sslmode=disable"

func quietStore() *Store { return &Store{Log: zerolog.New(io.Discard)} }

func TestOpenPG_RetriesUntilPingSucceeds(t *testing.T) {
	testkit.Serial(t)

	calls := 0
	testkit.Swap(t, &pingPool, func(context.Context, *pg.PG) error {
		calls++
		if calls < 3 {
			return errors.New("the database system is starting up")
		}
		return nil
	})

	cfg := Config{AppName: "pimms-test", PG: PGConfig{URL: closedPortURL, ConnectRetries: 5, PingTimeout: time.Second}}
	txr, err := openPG(context.Background(), cfg, quietStore())
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	a := txr.(*pgAdapter)
	t.Cleanup(func() { _ = a.Close() })
	require.Equal(t, "pimms-test", a.p.Pool.Config().ConnConfig.RuntimeParams["application_name"])
}

func TestOpenPG_GivesUpAfterConnectRetries(t *testing.T) {
	testkit.Serial(t)

	calls := 0
	testkit.Swap(t, &pingPool, func(context.Context, *pg.PG) error {
		calls++
		return errors.New("connection refused")
	})

	cfg := Config{PG: PGConfig{URL: closedPortURL, ConnectRetries: 2}}
	txr, err := openPG(context.Background(), cfg, quietStore())
	require.Nil(t, txr)
	require.ErrorContains(t, err, "after 2 attempts")
	require.ErrorContains(t, err, "connection refused")
	require.Equal(t, 2, calls)
}

func TestOpenPG_CanceledDuringBackoff(t *testing.T) {
	testkit.Serial(t)

	ctx, cancel := context.WithCancel(context.Background())
	testkit.Swap(t, &pingPool, func(context.Context, *pg.PG) error {
		cancel()
		return errors.New("not yet")
	})

	_, err := openPG(ctx, Config{PG: PGConfig{URL: closedPortURL, ConnectRetries: 10}}, quietStore())
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenPG_BadURL(t *testing.T) {
	_, err := openPG(context.Background(), Config{PG: PGConfig{URL: "://nope"}}, quietStore())
	require.Error(t, err)
}
