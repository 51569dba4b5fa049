package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	perr "pimms/internal/platform/errors"
	kit "pimms/internal/platform/testkit"
	"pimms/internal/services/hotscore/domain"
)

type fakeMsg struct {
	data    []byte
	acked   bool
	termd   bool
	delayed time.Duration
}

func (m *fakeMsg) Data() []byte { return m.data }
func (m *fakeMsg) Ack() error   { m.acked = true; return nil }
func (m *fakeMsg) Term() error  { m.termd = true; return nil }

func (m *fakeMsg) NakWithDelay(d time.Duration) error {
	m.delayed = d
	return nil
}

func reqMsg(t *testing.T, ws, cus string) *fakeMsg {
	t.Helper()
	b, err := json.Marshal(domain.Request{WorkspaceID: ws, CustomerID: cus, RequestedAt: time.Unix(1, 0).UTC()})
	if err != nil {
		t.Fatal(err)
	}
	return &fakeMsg{data: b}
}

func TestConsume_AcksEvenOnFailureAndTermsMalformed(t *testing.T) {
	ok := reqMsg(t, "ws", "cus_ok")
	failing := reqMsg(t, "ws", "cus_fail")
	garbage := &fakeMsg{data: []byte("{not json")}
	missing := &fakeMsg{data: []byte(`{"workspace_id":"ws"}`)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	fetch := func() ([]message, error) {
		calls++
		if calls == 1 {
			return []message{ok, failing, garbage, missing}, nil
		}
		cancel()
		return nil, nats.ErrTimeout
	}

	var seen []string
	err := consume(ctx, fetch, func(_ context.Context, r domain.Request) error {
		seen = append(seen, r.CustomerID)
		if r.CustomerID == "cus_fail" {
			return errors.New("boom")
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("consume returned %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("handler saw %v", seen)
	}
	if !ok.acked || !failing.acked {
		t.Fatalf("well formed messages must be acked: ok=%v failing=%v", ok.acked, failing.acked)
	}
	if !garbage.termd || !missing.termd || garbage.acked || missing.acked {
		t.Fatalf("malformed messages must be terminated, not acked")
	}
}

func TestConsume_DefersRequestsNotYetDue(t *testing.T) {
	at := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	kit.Swap(t, &clock, func() time.Time { return at })

	early, err := json.Marshal(domain.Request{WorkspaceID: "ws", CustomerID: "cus_later", RequestedAt: at, NotBefore: at.Add(10 * time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	due, err := json.Marshal(domain.Request{WorkspaceID: "ws", CustomerID: "cus_due", RequestedAt: at, NotBefore: at.Add(-time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	later, now := &fakeMsg{data: early}, &fakeMsg{data: due}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	fetch := func() ([]message, error) {
		calls++
		if calls == 1 {
			return []message{later, now}, nil
		}
		cancel()
		return nil, nats.ErrTimeout
	}

	var seen []string
	_ = consume(ctx, fetch, func(_ context.Context, r domain.Request) error {
		seen = append(seen, r.CustomerID)
		return nil
	})
	if len(seen) != 1 || seen[0] != "cus_due" {
		t.Fatalf("handler saw %v", seen)
	}
	if later.acked || later.delayed != 10*time.Second {
		t.Fatalf("early request should be redelivered in 10s, acked=%v delay=%v", later.acked, later.delayed)
	}
	if !now.acked || now.delayed != 0 {
		t.Fatalf("due request should be handled and acked")
	}
}

func TestConsume_FetchErrorBacksOffAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fetch := func() ([]message, error) {
		calls++
		cancel()
		return nil, errors.New("connection closed")
	}
	err := consume(ctx, fetch, func(context.Context, domain.Request) error { return nil })
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("consume = %v after %d fetches", err, calls)
	}
}

type fakePub struct {
	subject string
	data    []byte
	opts    int
	err     error
}

func (p *fakePub) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	p.subject, p.data, p.opts = subject, data, len(opts)
	return &jetstream.PubAck{Stream: "HOTSCORE"}, p.err
}

func TestJetStream_Enqueue(t *testing.T) {
	pub := &fakePub{}
	q := &JetStream{pub: pub, cfg: Config{}.withDefaults()}

	if err := q.Enqueue(context.Background(), domain.Request{WorkspaceID: "ws", CustomerID: "cus"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if pub.subject != "pimms.hotscore.recompute" || pub.opts != 1 {
		t.Fatalf("published to %q with %d opts", pub.subject, pub.opts)
	}
	var got domain.Request
	if err := json.Unmarshal(pub.data, &got); err != nil || got.CustomerID != "cus" || got.RequestedAt.IsZero() {
		t.Fatalf("payload %s (%v)", pub.data, err)
	}

	if err := q.Enqueue(context.Background(), domain.Request{WorkspaceID: "ws"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("invalid request should be rejected, got %v", err)
	}
}

func TestMsgID_FoldsWithinSecond(t *testing.T) {
	at := time.Date(2025, 8, 1, 12, 0, 0, 100, time.UTC)
	a := msgID(domain.Request{WorkspaceID: "ws", CustomerID: "cus", RequestedAt: at})
	b := msgID(domain.Request{WorkspaceID: "ws", CustomerID: "cus", RequestedAt: at.Add(500 * time.Millisecond)})
	c := msgID(domain.Request{WorkspaceID: "ws", CustomerID: "cus", RequestedAt: at.Add(time.Second)})
	if a != b || a == c {
		t.Fatalf("msg ids a=%s b=%s c=%s", a, b, c)
	}
	trail := msgID(domain.Request{WorkspaceID: "ws", CustomerID: "cus", RequestedAt: at, NotBefore: at.Add(10 * time.Second)})
	if trail == a {
		t.Fatalf("trailing request must not fold into the trigger it follows: %s", trail)
	}
}

func TestConfig_Defaults(t *testing.T) {
	c := Config{Subject: "custom.subject", Batch: 3}.withDefaults()
	if c.Subject != "custom.subject" || c.Batch != 3 {
		t.Fatalf("overrides lost: %+v", c)
	}
	if c.Stream != "HOTSCORE" || c.Durable == "" || c.AckWait <= 0 || c.FetchWait <= 0 {
		t.Fatalf("defaults missing: %+v", c)
	}
}

func TestNewJetStream_NilPanics(t *testing.T) {
	kit.MustPanic(t, func() { NewJetStream(nil, Config{}) })
}

func TestLocal_EnqueueAndRun(t *testing.T) {
	q := NewLocal(8, 2)
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(context.Background(), domain.Request{WorkspaceID: "ws", CustomerID: id}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d", q.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan error, 1)
	go func() {
		done <- q.Run(ctx, func(_ context.Context, r domain.Request) error {
			mu.Lock()
			seen[r.CustomerID] = true
			n := len(seen)
			mu.Unlock()
			if n == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not drain the queue")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestLocal_FullQueue(t *testing.T) {
	q := NewLocal(1, 1)
	r := domain.Request{WorkspaceID: "ws", CustomerID: "cus"}
	if err := q.Enqueue(context.Background(), r); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if err := q.Enqueue(context.Background(), r); !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want TooManyRequests, got %v", err)
	}
}

func TestLocal_DelayedRequestArrivesWhenDue(t *testing.T) {
	q := NewLocal(4, 1)
	r := domain.Request{WorkspaceID: "ws", CustomerID: "cus", NotBefore: time.Now().Add(50 * time.Millisecond)}
	if err := q.Enqueue(context.Background(), r); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("request queued before it was due")
	}
	deadline := time.Now().Add(5 * time.Second)
	for q.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("delayed request never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
