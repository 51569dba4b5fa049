package bus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

// not parallel: swaps connect seam
func TestOpen_ConnectError(t *testing.T) {
	old := connect
	connect = func(string, ...nats.Option) (*nats.Conn, error) {
		return nil, errors.New("no servers")
	}
	t.Cleanup(func() { connect = old })

	_, err := Open(context.Background(), Config{URL: "nats://127.0.0.1:1", JetStream: true})
	if err == nil || !strings.Contains(err.Error(), "no servers") {
		t.Fatalf("want connect error, got %v", err)
	}
}

func TestNilBus_Safe(t *testing.T) {
	t.Parallel()

	var b *Bus
	if err := b.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("Ping on nil should error")
	}
}
