// Package service recomputes and persists customer hot scores
package service

import (
	"context"
	stderrs "errors"
	"sort"
	"time"

	"pimms/internal/core/hotscore"
	"pimms/internal/modkit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	attrdom "pimms/internal/services/attribution/domain"
	dom "pimms/internal/services/hotscore/domain"
	"pimms/internal/services/hotscore/gate"
	hrepo "pimms/internal/services/hotscore/repo"
)

// Service implements the enqueue, recompute and worker ports
type Service interface {
	dom.EnqueuePort
	dom.RecomputePort
	dom.WorkerPort
	Force(ctx context.Context, workspaceID, customerID string) (dom.Outcome, error)
}

// ClickHistory reads a visitor's clicks from the click store
type ClickHistory interface {
	ClicksByAnonymous(ctx context.Context, workspaceID, anonymousID string, since time.Time, limit int) ([]attrdom.Click, error)
}

// Config controls recompute behavior
type Config struct {
	LockTTL      time.Duration
	Timeout      time.Duration
	HistoryLimit int
}

// Backends are the collaborators a Svc needs, Clicks is optional
type Backends struct {
	Repo     hrepo.Repo
	Clicks   ClickHistory
	Gate     dom.Gate
	Queue    dom.Publisher
	Consumer dom.Consumer
	Metrics  *metrics.Metrics
}

// Svc implements Service
type Svc struct {
	repo     hrepo.Repo
	clicks   ClickHistory
	gate     dom.Gate
	queue    dom.Publisher
	consumer dom.Consumer
	metrics  *metrics.Metrics

	cfg   Config
	model hotscore.Model
	now   func() time.Time
}

// New constructs the service
func New(b Backends, cfg Config) *Svc {
	if b.Repo == nil {
		panic("hotscore.Service requires a non nil Repo")
	}
	if b.Gate == nil {
		panic("hotscore.Service requires a non nil Gate")
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 2000
	}
	return &Svc{
		repo:     b.Repo,
		clicks:   b.Clicks,
		gate:     b.Gate,
		queue:    b.Queue,
		consumer: b.Consumer,
		metrics:  b.Metrics,
		cfg:      cfg,
		model:    hotscore.Default,
		now:      time.Now,
	}
}

// NewFromDeps binds the postgres repo from deps
func NewFromDeps(deps modkit.Deps, b Backends, cfg Config) *Svc {
	if b.Repo == nil && deps.PG != nil {
		b.Repo = hrepo.NewPG().Bind(deps.PG)
	}
	if b.Metrics == nil {
		b.Metrics = deps.Metrics
	}
	return New(b, cfg)
}

// EnqueueRecompute queues a recompute for the customer
func (s *Svc) EnqueueRecompute(ctx context.Context, workspaceID, customerID string) error {
	if s.queue == nil {
		return perr.Unavailablef("recompute queue not configured")
	}
	err := s.queue.Enqueue(ctx, dom.Request{
		WorkspaceID: workspaceID,
		CustomerID:  customerID,
		RequestedAt: s.now().UTC(),
	})
	if err != nil {
		s.metrics.Enqueue("error")
		return err
	}
	s.metrics.Enqueue("ok")
	return nil
}

// Recompute runs the engine for one customer when the gate admits it
// losing the gate is not an error, the holder already computed and one
// trailing recompute is queued for events that arrived after it read history
func (s *Svc) Recompute(ctx context.Context, workspaceID, customerID string) (dom.Outcome, error) {
	if err := (dom.Request{WorkspaceID: workspaceID, CustomerID: customerID}).Validate(); err != nil {
		return dom.Outcome{}, err
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	ok, err := s.gate.TryAcquire(ctx, workspaceID, customerID, s.cfg.LockTTL)
	if err != nil {
		s.metrics.Recompute("gate_error", time.Since(start).Seconds())
		return dom.Outcome{}, err
	}
	if !ok {
		s.trail(ctx, workspaceID, customerID)
		s.metrics.Recompute("skipped", time.Since(start).Seconds())
		return dom.Outcome{}, nil
	}

	out, err := s.compute(ctx, workspaceID, customerID)
	if err != nil {
		s.metrics.Recompute("error", time.Since(start).Seconds())
		return dom.Outcome{}, err
	}
	s.metrics.Recompute("ok", time.Since(start).Seconds())
	return out, nil
}

// trail queues at most one delayed recompute per customer per gate window
// it fires once the current gate has expired
func (s *Svc) trail(ctx context.Context, workspaceID, customerID string) {
	if s.queue == nil {
		return
	}
	log := logger.C(ctx).With().Str("customer_id", customerID).Logger()
	hold := gate.Hold(s.cfg.LockTTL)
	marked, err := s.gate.TryMarkPending(ctx, workspaceID, customerID, hold)
	if err != nil {
		log.Warn().Err(err).Msg("trailing recompute not scheduled")
		return
	}
	if !marked {
		return
	}
	at := s.now().UTC()
	err = s.queue.Enqueue(ctx, dom.Request{
		WorkspaceID: workspaceID,
		CustomerID:  customerID,
		RequestedAt: at,
		NotBefore:   at.Add(hold),
	})
	if err != nil {
		s.metrics.Enqueue("error")
		log.Warn().Err(err).Msg("trailing recompute not queued")
		return
	}
	s.metrics.Enqueue("trailing")
}

// Force recomputes without consulting the gate
func (s *Svc) Force(ctx context.Context, workspaceID, customerID string) (dom.Outcome, error) {
	if err := (dom.Request{WorkspaceID: workspaceID, CustomerID: customerID}).Validate(); err != nil {
		return dom.Outcome{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.compute(ctx, workspaceID, customerID)
}

// Handle adapts Recompute to a queue handler
func (s *Svc) Handle(ctx context.Context, r dom.Request) error {
	_, err := s.Recompute(ctx, r.WorkspaceID, r.CustomerID)
	return err
}

// Run consumes the queue until ctx ends
func (s *Svc) Run(ctx context.Context) error {
	if s.consumer == nil {
		return perr.Unavailablef("recompute consumer not configured")
	}
	return s.consumer.Run(ctx, s.Handle)
}

func (s *Svc) compute(ctx context.Context, workspaceID, customerID string) (dom.Outcome, error) {
	now := s.now().UTC().Truncate(time.Second)
	history, err := s.history(ctx, workspaceID, customerID, now)
	if err != nil {
		return dom.Outcome{}, err
	}
	res := s.model.Compute(history, now)
	if err := s.repo.Save(ctx, workspaceID, customerID, res, now); err != nil {
		return dom.Outcome{}, err
	}
	logger.C(ctx).Debug().
		Str("customer_id", customerID).
		Float64("score", res.Score).
		Int("tier", int(res.Tier)).
		Int("events", len(history)).
		Msg("hot score saved")
	return dom.Outcome{Ran: true, At: now, Result: res}, nil
}

// history merges stored events with the visitor's clicks, deduped by token
func (s *Svc) history(ctx context.Context, workspaceID, customerID string, now time.Time) ([]hotscore.Event, error) {
	since := now.Add(-s.model.Lookback())

	anon, err := s.repo.Subject(ctx, workspaceID, customerID)
	if err != nil {
		if stderrs.Is(err, perr.ErrNotFound) {
			return nil, perr.NotFoundf("customer %s not found", customerID)
		}
		return nil, err
	}

	rows, err := s.repo.Events(ctx, workspaceID, customerID, since, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]hotscore.Event, 0, len(rows))
	for _, r := range rows {
		if !r.Kind.Valid() {
			continue
		}
		if r.Kind == hotscore.KindClick && r.ClickID != "" {
			seen[r.ClickID] = struct{}{}
		}
		out = append(out, hotscore.Event{Kind: r.Kind, At: r.At, Amount: r.Amount, Currency: r.Currency})
	}

	if s.clicks != nil && anon != "" {
		clicks, err := s.clicks.ClicksByAnonymous(ctx, workspaceID, anon, since, s.cfg.HistoryLimit)
		if err != nil {
			// score from stored events alone
			logger.C(ctx).Warn().Err(err).Str("customer_id", customerID).Msg("click history unavailable")
		}
		for _, c := range clicks {
			if _, dup := seen[c.Token]; dup {
				continue
			}
			seen[c.Token] = struct{}{}
			out = append(out, hotscore.Event{Kind: hotscore.KindClick, At: c.At})
		}
	}

	if len(out) > s.cfg.HistoryLimit {
		sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
		out = out[:s.cfg.HistoryLimit]
	}
	return out, nil
}
