package modkit

import (
	"testing"

	"pimms/internal/platform/config"
	"pimms/internal/platform/metrics"
	"pimms/internal/platform/store"

	"github.com/stretchr/testify/require"
)

func TestFromStore(t *testing.T) {
	m := metrics.New("t")
	cfg := config.New().Prefix("CORE_API_")

	d := FromStore(&store.Store{}, cfg, m)
	require.Nil(t, d.PG)
	require.Nil(t, d.CH)
	require.Nil(t, d.RDS)
	require.Nil(t, d.Bus)
	require.Same(t, m, d.Metrics)
	require.Equal(t, cfg, d.Cfg)

	d = FromStore(nil, cfg, nil)
	require.Nil(t, d.PG)
	require.Nil(t, d.Metrics)
}
