package repokit

import (
	"context"
	"testing"

	"pimms/internal/platform/store"

	"github.com/stretchr/testify/require"
)

type nopQ struct{ store.RowQuerier }

type counterRepo struct{ q Queryer }

func TestBindFunc_PassesQueryer(t *testing.T) {
	q := nopQ{}
	var b Binder[counterRepo] = BindFunc[counterRepo](func(q Queryer) counterRepo { return counterRepo{q: q} })

	got := b.Bind(q)
	require.Equal(t, q, got.q)
}

func TestCH_ReturnsSameHandle(t *testing.T) {
	var db store.Clickhouse
	require.Nil(t, CH(context.Background(), db))
}
