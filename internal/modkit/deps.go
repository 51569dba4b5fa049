package modkit

import (
	"github.com/redis/go-redis/v9"

	"pimms/internal/modkit/repokit"
	"pimms/internal/platform/config"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	"pimms/internal/platform/store"
	"pimms/internal/platform/store/bus"
)

// Deps are the backends a module may use, nil members were not configured
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	CH      store.Clickhouse
	RDS     redis.UniversalClient
	Bus     *bus.Bus
	Metrics *metrics.Metrics
}

// FromStore copies the opened backends of s into a Deps
func FromStore(s *store.Store, cfg config.Conf, m *metrics.Metrics) Deps {
	d := Deps{Cfg: cfg, Metrics: m}
	if s == nil {
		return d
	}
	d.Log = s.Log
	d.PG = s.PG
	d.CH = s.CH
	d.RDS = s.RDS
	d.Bus = s.Bus
	return d
}

