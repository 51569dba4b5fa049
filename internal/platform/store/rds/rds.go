// Package rds opens a redis client for short lived coordination keys
package rds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	PingTimeout time.Duration
}

// newClient is a seam for tests
var newClient = redis.NewClient

// Open builds a client and pings it once
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("rds: empty addr")
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 3 * time.Second
	}
	ping := cfg.PingTimeout
	if ping <= 0 {
		ping = 3 * time.Second
	}

	c := newClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	pctx, cancel := context.WithTimeout(ctx, ping)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("rds: ping %s: %w", cfg.Addr, err)
	}
	return c, nil
}
