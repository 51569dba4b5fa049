package ch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestOpen_BadDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{URL: "://nope"})
	if err == nil || !strings.Contains(err.Error(), "parse dsn") {
		t.Fatalf("want parse dsn error, got %v", err)
	}
}

// not parallel: swaps package seams
func TestOpen_AppliesOverrides(t *testing.T) {
	var got *clickhouse.Options
	oldOpen := openConn
	openConn = func(o *clickhouse.Options) (driver.Conn, error) {
		got = o
		return nil, errors.New("stop")
	}
	t.Cleanup(func() { openConn = oldOpen })

	_, err := Open(context.Background(), Config{
		URL:          "clickhouse://default:@localhost:9000/pimms",
		Role:         "api",
		MaxOpenConns: 7,
	})
	if err == nil || !strings.Contains(err.Error(), "stop") {
		t.Fatalf("want open error, got %v", err)
	}
	if got == nil {
		t.Fatalf("openConn not called")
	}
	if got.MaxOpenConns != 7 {
		t.Fatalf("MaxOpenConns=%d", got.MaxOpenConns)
	}
	if got.DialTimeout == 0 {
		t.Fatalf("DialTimeout default not applied")
	}
	if got.Settings["max_execution_time"] != 30 {
		t.Fatalf("max_execution_time=%v", got.Settings["max_execution_time"])
	}
	if got.Auth.Database != "pimms" {
		t.Fatalf("database=%q", got.Auth.Database)
	}
}

func TestNilClient_Safe(t *testing.T) {
	t.Parallel()

	var c *CH
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("Ping on nil should error")
	}
	if _, err := c.Query(context.Background(), "SELECT 1"); err == nil {
		t.Fatalf("Query on nil should error")
	}
	if err := c.Insert(context.Background(), "clicks", [][]any{{1}}); err == nil {
		t.Fatalf("Insert on nil should error")
	}
}

func TestBuildClientInfo(t *testing.T) {
	t.Parallel()

	ci := BuildClientInfo(" scorer ")
	if len(ci.Products) == 0 || ci.Products[0].Name != "pimms" {
		t.Fatalf("products=%v", ci.Products)
	}
	if ci.Products[1].Version != "scorer" {
		t.Fatalf("role not trimmed: %q", ci.Products[1].Version)
	}
}
