package module

import (
	"time"

	"pimms/internal/platform/config"
)

// Queue backends
const (
	QueueAuto  = "auto"
	QueueNATS  = "nats"
	QueueLocal = "local"
)

// Options controls the hot score worker
type Options struct {
	LockTTL      time.Duration
	Timeout      time.Duration
	HistoryLimit int

	// Queue picks nats or local, auto uses nats when connected
	Queue          string
	LocalQueueSize int
	Workers        int

	Stream     string
	Subject    string
	Durable    string
	FetchBatch int
	MaxDeliver int
}

// FromConfig reads with HOTSCORE_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("HOTSCORE_")
	return Options{
		LockTTL:        c.MayDuration("LOCK_TTL", 10*time.Second),
		Timeout:        c.MayDuration("TIMEOUT", 10*time.Second),
		HistoryLimit:   c.MayInt("HISTORY_LIMIT", 2000),
		Queue:          c.MayEnum("QUEUE", QueueAuto, QueueAuto, QueueNATS, QueueLocal),
		LocalQueueSize: c.MayInt("LOCAL_QUEUE_SIZE", 1024),
		Workers:        c.MayInt("WORKERS", 4),
		Stream:         c.MayString("STREAM", "HOTSCORE"),
		Subject:        c.MayString("SUBJECT", "pimms.hotscore.recompute"),
		Durable:        c.MayString("DURABLE", "hotscore-scorer"),
		FetchBatch:     c.MayInt("FETCH_BATCH", 16),
		MaxDeliver:     c.MayInt("MAX_DELIVER", 5),
	}
}
