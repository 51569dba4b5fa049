package store

import (
	"testing"
	"time"

	"pimms/internal/platform/config"
)

func TestFromEnv_PostgresOnly(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@localhost/pimms")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "")
	t.Setenv("SERVICE_REDIS_ADDR", "")
	t.Setenv("SERVICE_NATS_URL", "")

	cfg := FromEnv(config.New(), "pimms-test")
	if cfg.AppName != "pimms-test" {
		t.Fatalf("app name = %q", cfg.AppName)
	}
	if !cfg.PG.Enabled || cfg.PG.URL != "postgres://u:p@localhost/pimms" {
		t.Fatalf("pg = %+v", cfg.PG)
	}
	if cfg.CH.Enabled || cfg.RDS.Enabled || cfg.NATS.Enabled {
		t.Fatalf("optional backends should be off: %+v", cfg)
	}
	if cfg.PG.PingTimeout != 5*time.Second || cfg.PG.ConnectRetries != 6 {
		t.Fatalf("pg defaults = %+v", cfg.PG)
	}
}

func TestFromEnv_AllBackends(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://localhost/pimms")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "16")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "clickhouse://localhost:9000/pimms")
	t.Setenv("SERVICE_REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVICE_REDIS_DB", "2")
	t.Setenv("SERVICE_NATS_URL", "nats://localhost:4222")
	t.Setenv("SERVICE_NATS_JETSTREAM", "false")

	cfg := FromEnv(config.New(), "pimms")
	if cfg.PG.MaxConns != 16 {
		t.Fatalf("max conns = %d", cfg.PG.MaxConns)
	}
	if !cfg.CH.Enabled || cfg.CH.URL != "clickhouse://localhost:9000/pimms" {
		t.Fatalf("ch = %+v", cfg.CH)
	}
	if !cfg.RDS.Enabled || cfg.RDS.Addr != "localhost:6379" || cfg.RDS.DB != 2 {
		t.Fatalf("redis = %+v", cfg.RDS)
	}
	if !cfg.NATS.Enabled || cfg.NATS.JetStream {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
}
