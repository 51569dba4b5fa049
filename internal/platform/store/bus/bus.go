// Package bus opens a nats connection with a jetstream context
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config configures nats connectivity
type Config struct {
	URL           string
	Name          string
	JetStream     bool
	ConnectWait   time.Duration
	MaxReconnects int
}

// Bus holds the core connection and the optional jetstream handle
type Bus struct {
	Conn *nats.Conn
	JS   jetstream.JetStream
}

// connect is a seam for tests
var connect = nats.Connect

// Open dials nats and, when requested, builds a jetstream context
func Open(_ context.Context, cfg Config) (*Bus, error) {
	if cfg.URL == "" {
		return nil, errors.New("bus: empty url")
	}
	wait := cfg.ConnectWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	maxRe := cfg.MaxReconnects
	if maxRe == 0 {
		maxRe = -1
	}

	opts := []nats.Option{
		nats.Timeout(wait),
		nats.MaxReconnects(maxRe),
		nats.RetryOnFailedConnect(false),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	nc, err := connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: connect %s: %w", cfg.URL, err)
	}

	b := &Bus{Conn: nc}
	if cfg.JetStream {
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("bus: jetstream: %w", err)
		}
		b.JS = js
	}
	return b, nil
}

// Ping reports whether the connection is usable
func (b *Bus) Ping(ctx context.Context) error {
	if b == nil || b.Conn == nil {
		return errors.New("bus: nil connection")
	}
	if !b.Conn.IsConnected() {
		return fmt.Errorf("bus: status %s", b.Conn.Status())
	}
	return b.Conn.FlushWithContext(ctx)
}

// Close drains pending publishes then closes
func (b *Bus) Close() error {
	if b == nil || b.Conn == nil {
		return nil
	}
	if err := b.Conn.Drain(); err != nil {
		b.Conn.Close()
		return err
	}
	return nil
}
