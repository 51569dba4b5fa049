package store

import (
	"time"

	"pimms/internal/platform/config"
)

// FromEnv reads backend settings from SERVICE_PGSQL_, SERVICE_CLICKHOUSE_,
// SERVICE_REDIS_ and SERVICE_NATS_
// postgres is always on; the others switch on when their address is set
func FromEnv(root config.Conf, app string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	rd := root.Prefix("SERVICE_REDIS_")
	nt := root.Prefix("SERVICE_NATS_")

	chURL := ch.MayString("DBURL", "")
	rdAddr := rd.MayString("ADDR", "")
	ntURL := nt.MayString("URL", "")

	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:        true,
			URL:            pg.MustString("DBURL"),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 500),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 6),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 5*time.Second),
		},
		CH: CHConfig{
			Enabled:      chURL != "",
			URL:          chURL,
			MaxOpenConns: ch.MayInt("MAX_OPEN_CONNS", 8),
		},
		RDS: RedisConfig{
			Enabled:  rdAddr != "",
			Addr:     rdAddr,
			Password: rd.MayString("PASSWORD", ""),
			DB:       rd.MayInt("DB", 0),
		},
		NATS: NATSConfig{
			Enabled:   ntURL != "",
			URL:       ntURL,
			JetStream: nt.MayBool("JETSTREAM", true),
		},
	}
}
