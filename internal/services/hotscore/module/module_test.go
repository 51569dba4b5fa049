package module

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"pimms/internal/modkit"
	mod "pimms/internal/modkit/module"
	"pimms/internal/platform/config"
	"pimms/internal/platform/store"
	kit "pimms/internal/platform/testkit"
	dom "pimms/internal/services/hotscore/domain"
)

type nopDB struct{}

func (nopDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (nopDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (nopDB) QueryRow(context.Context, string, ...any) store.Row            { return nil }
func (d nopDB) Tx(_ context.Context, fn func(store.RowQuerier) error) error { return fn(d) }

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.LockTTL != 10*time.Second || o.Timeout != 10*time.Second || o.HistoryLimit != 2000 {
		t.Fatalf("unexpected defaults %+v", o)
	}
	if o.Queue != QueueAuto || o.Subject != "pimms.hotscore.recompute" || o.Stream != "HOTSCORE" {
		t.Fatalf("unexpected queue defaults %+v", o)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("HOTSCORE_LOCK_TTL", "30s")
	t.Setenv("HOTSCORE_QUEUE", "local")
	t.Setenv("HOTSCORE_WORKERS", "9")
	o := FromConfig(config.New())
	if o.LockTTL != 30*time.Second || o.Queue != QueueLocal || o.Workers != 9 {
		t.Fatalf("env not applied: %+v", o)
	}
}

func TestNew_RedisGateLocalQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := New(modkit.Deps{Cfg: config.New(), RDS: rdb, PG: nopDB{}}, Options{Workers: 2, Timeout: time.Second})
	if !m.InProcess() || m.Backend() != QueueLocal {
		t.Fatalf("expected local queue without nats, got %s", m.Backend())
	}
	if m.Name() != "hotscore" || m.Prefix() != "" {
		t.Fatalf("name/prefix = %q %q", m.Name(), m.Prefix())
	}
	if err := m.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare on local queue: %v", err)
	}

	enq := mod.MustPortsOf[dom.EnqueuePort](m)
	if err := enq.EnqueueRecompute(context.Background(), "ws", "cus"); err != nil {
		t.Fatalf("EnqueueRecompute: %v", err)
	}
	_ = mod.MustPortsOf[dom.WorkerPort](m)
	_ = mod.MustPortsOf[dom.RecomputePort](m)
}

func TestNew_NoGateBackendPanics(t *testing.T) {
	kit.MustPanic(t, func() { New(modkit.Deps{Cfg: config.New()}, Options{}) })
}

func TestNew_NATSRequiredButMissingPanics(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	kit.MustPanic(t, func() { New(modkit.Deps{Cfg: config.New(), RDS: rdb, PG: nopDB{}}, Options{Queue: QueueNATS}) })
}

func TestMerge_OverridesOnlyNonZero(t *testing.T) {
	o := Options{LockTTL: time.Second, Subject: "a", Workers: 1}
	merge(&o, Options{Subject: "b"})
	if o.LockTTL != time.Second || o.Subject != "b" || o.Workers != 1 {
		t.Fatalf("merge = %+v", o)
	}
}
