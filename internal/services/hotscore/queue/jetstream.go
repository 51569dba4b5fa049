// Package queue carries recompute requests from the API to the scorer
//
// JetStream is used when nats is configured; Local is an in-process
// channel with a bounded worker pool for single-binary deployments.
package queue

import (
	"context"
	"encoding/json"
	stderrs "errors"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"pimms/internal/platform/logger"
	"pimms/internal/services/hotscore/domain"
)

// Config names the stream and tunes the pull consumer
type Config struct {
	Stream     string
	Subject    string
	Durable    string
	AckWait    time.Duration
	MaxDeliver int
	MaxAge     time.Duration
	Batch      int
	FetchWait  time.Duration
}

// DefaultConfig is the stream layout shared by api and scorer
func DefaultConfig() Config {
	return Config{
		Stream:     "HOTSCORE",
		Subject:    "pimms.hotscore.recompute",
		Durable:    "hotscore-scorer",
		AckWait:    30 * time.Second,
		MaxDeliver: 5,
		MaxAge:     24 * time.Hour,
		Batch:      16,
		FetchWait:  5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Stream == "" {
		c.Stream = d.Stream
	}
	if c.Subject == "" {
		c.Subject = d.Subject
	}
	if c.Durable == "" {
		c.Durable = d.Durable
	}
	if c.AckWait <= 0 {
		c.AckWait = d.AckWait
	}
	if c.MaxDeliver == 0 {
		c.MaxDeliver = d.MaxDeliver
	}
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.Batch <= 0 {
		c.Batch = d.Batch
	}
	if c.FetchWait <= 0 {
		c.FetchWait = d.FetchWait
	}
	return c
}

// publisher is the slice of jetstream.JetStream Enqueue needs
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// message is the slice of jetstream.Msg the consume loop needs
type message interface {
	Data() []byte
	Ack() error
	Term() error
	NakWithDelay(delay time.Duration) error
}

// clock is swapped by tests
var clock = time.Now

// fetchFunc pulls the next batch, an empty batch is not an error
type fetchFunc func() ([]message, error)

// JetStream is a durable at-least-once queue
type JetStream struct {
	js  jetstream.JetStream
	pub publisher
	cfg Config
}

// NewJetStream builds a queue over an open jetstream context
func NewJetStream(js jetstream.JetStream, cfg Config) *JetStream {
	if js == nil {
		panic("queue.JetStream requires a non nil jetstream")
	}
	return &JetStream{js: js, pub: js, cfg: cfg.withDefaults()}
}

// Ensure creates or updates the stream
// duplicates within the window are dropped by Nats-Msg-Id
func (q *JetStream) Ensure(ctx context.Context) error {
	_, err := q.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       q.cfg.Stream,
		Subjects:   []string{q.cfg.Subject},
		Retention:  jetstream.WorkQueuePolicy,
		MaxAge:     q.cfg.MaxAge,
		Duplicates: 2 * time.Minute,
	})
	return err
}

// Enqueue publishes r with a per second dedupe id
func (q *JetStream) Enqueue(ctx context.Context, r domain.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = clock().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = q.pub.Publish(ctx, q.cfg.Subject, data, jetstream.WithMsgID(msgID(r)))
	return err
}

// msgID folds triggers for one customer within the same second
// a trailing request never folds into the trigger it follows
func msgID(r domain.Request) string {
	id := r.WorkspaceID + ":" + r.CustomerID + ":" + strconv.FormatInt(r.RequestedAt.Unix(), 10)
	if !r.NotBefore.IsZero() {
		id += ":trail"
	}
	return id
}

// Run binds the durable consumer and hands messages to h until ctx ends
func (q *JetStream) Run(ctx context.Context, h domain.Handler) error {
	stream, err := q.js.Stream(ctx, q.cfg.Stream)
	if err != nil {
		return err
	}
	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       q.cfg.Durable,
		FilterSubject: q.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       q.cfg.AckWait,
		MaxDeliver:    q.cfg.MaxDeliver,
	})
	if err != nil {
		return err
	}
	fetch := func() ([]message, error) {
		batch, err := cons.Fetch(q.cfg.Batch, jetstream.FetchMaxWait(q.cfg.FetchWait))
		if err != nil {
			return nil, err
		}
		var out []message
		for m := range batch.Messages() {
			out = append(out, m)
		}
		return out, batch.Error()
	}
	return consume(ctx, fetch, h)
}

// consume acks every well formed message after h returns, failed or not
// the next natural trigger retries a failed recompute
// requests that are not due yet go back to the server with the remaining delay
func consume(ctx context.Context, fetch fetchFunc, h domain.Handler) error {
	log := logger.Named("hotscore-queue")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msgs, err := fetch()
		if err != nil && !stderrs.Is(err, nats.ErrTimeout) && !stderrs.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("fetch failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, m := range msgs {
			var r domain.Request
			if err := json.Unmarshal(m.Data(), &r); err != nil || r.Validate() != nil {
				log.Warn().Int("bytes", len(m.Data())).Msg("terminating malformed recompute message")
				_ = m.Term()
				continue
			}
			if d := r.Delay(clock()); d > 0 {
				if err := m.NakWithDelay(d); err != nil {
					log.Debug().Err(err).Msg("nak failed")
				}
				continue
			}
			if err := h(ctx, r); err != nil {
				log.Warn().Err(err).
					Str("workspace_id", r.WorkspaceID).
					Str("customer_id", r.CustomerID).
					Msg("recompute failed")
			}
			if err := m.Ack(); err != nil {
				log.Debug().Err(err).Msg("ack failed")
			}
		}
	}
}
