package module

import (
	"context"
	"testing"
	"time"

	modkit "pimms/internal/modkit"
	"pimms/internal/platform/config"
	"pimms/internal/platform/store"
	"pimms/internal/services/api/customers/domain"
)

type nopDB struct{}

func (nopDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (nopDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (nopDB) QueryRow(context.Context, string, ...any) store.Row            { return nil }
func (d nopDB) Tx(_ context.Context, fn func(store.RowQuerier) error) error { return fn(d) }

type nopEnq struct{}

func (nopEnq) EnqueueRecompute(context.Context, string, string) error { return nil }

func TestNew_RequiresEnqueuer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic without Enqueuer port")
		}
	}()
	New(modkit.Deps{Cfg: config.New(), PG: nopDB{}})
}

func TestNew_ExposesServicePort(t *testing.T) {
	m := New(modkit.Deps{Cfg: config.New(), PG: nopDB{}}, modkit.WithPorts(Ports{Enqueuer: nopEnq{}})).(*Module)
	if m.Name() != "customers" || m.Prefix() != "/workspaces" {
		t.Fatalf("name/prefix = %q %q", m.Name(), m.Prefix())
	}
	if _, ok := m.Ports().(domain.ServicePort); !ok {
		t.Fatalf("ports %T does not implement ServicePort", m.Ports())
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("CUSTOMERS_ENQUEUE_TIMEOUT", "3s")
	if o := FromConfig(config.New()); o.EnqueueTimeout != 3*time.Second {
		t.Fatalf("EnqueueTimeout = %v", o.EnqueueTimeout)
	}
}
