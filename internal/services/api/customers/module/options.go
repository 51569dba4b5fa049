package module

import (
	"time"

	"pimms/internal/platform/config"
)

// Options controls customer side effects
type Options struct {
	EnqueueTimeout time.Duration
}

// FromConfig reads CUSTOMERS_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	cc := cfg.Prefix("CUSTOMERS_")
	return Options{
		EnqueueTimeout: cc.MayDuration("ENQUEUE_TIMEOUT", 10*time.Second),
	}
}
