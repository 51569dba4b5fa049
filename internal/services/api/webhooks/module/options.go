package module

import (
	"time"

	"pimms/internal/platform/config"
)

// Options controls webhook ingestion
type Options struct {
	// Timeout bounds verify, attribution and upsert
	Timeout      time.Duration
	StoreTimeout time.Duration
	AuditTimeout time.Duration

	// AppsFile is an optional YAML overlay over the built-in app table
	AppsFile string

	// MaxInflight caps concurrent deliveries, 0 disables the cap
	// up to Backlog more wait BacklogWait for a slot before a 429
	MaxInflight int
	Backlog     int
	BacklogWait time.Duration
}

// FromConfig reads WEBHOOKS_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	wc := cfg.Prefix("WEBHOOKS_")
	return Options{
		Timeout:      wc.MayDuration("TIMEOUT", 5*time.Second),
		StoreTimeout: wc.MayDuration("STORE_TIMEOUT", 0),
		AuditTimeout: wc.MayDuration("AUDIT_TIMEOUT", 2*time.Second),
		AppsFile:     wc.MayString("APPS_FILE", ""),
		MaxInflight:  wc.MayInt("MAX_INFLIGHT", 64),
		Backlog:      wc.MayInt("BACKLOG", 256),
		BacklogWait:  wc.MayDuration("BACKLOG_WAIT", 10*time.Second),
	}
}
