package store

import "time"

// Config says which backends Open connects, see FromEnv
type Config struct {
	// AppName tags postgres sessions and clickhouse queries, e.g. pimms-scorer
	AppName string

	PG   PGConfig
	CH   CHConfig
	NATS NATSConfig
	RDS  RedisConfig
}

// PGConfig is the customers, events and webhook error store
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the startup ping loop, 0 means 6
	ConnectRetries int
	// PingTimeout bounds each startup ping, 0 means 5s
	PingTimeout time.Duration
}

// CHConfig is the click store attribution and scoring read
type CHConfig struct {
	Enabled      bool
	URL          string
	MaxOpenConns int
}

// NATSConfig carries the recompute stream
type NATSConfig struct {
	Enabled   bool
	URL       string
	JetStream bool
}

// RedisConfig holds the recompute gate keys
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}
