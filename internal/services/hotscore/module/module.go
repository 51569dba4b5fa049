// Package module wires the hot score worker and exposes its ports
package module

import (
	"context"
	"strings"

	"pimms/internal/modkit"
	"pimms/internal/modkit/httpkit"
	"pimms/internal/platform/logger"
	attrrepo "pimms/internal/services/attribution/repo"
	dom "pimms/internal/services/hotscore/domain"
	"pimms/internal/services/hotscore/gate"
	"pimms/internal/services/hotscore/queue"
	"pimms/internal/services/hotscore/service"
)

// Module defines the hotscore worker module
type Module struct {
	deps    modkit.Deps
	ports   Ports
	svc     *service.Svc
	js      *queue.JetStream
	local   *queue.Local
	backend string
}

// New constructs the hotscore module, non-zero overrides win over config
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	merge(&opts, overrides)

	m := &Module{deps: deps}

	var g dom.Gate
	switch {
	case deps.RDS != nil:
		g = gate.NewRedis(deps.RDS)
	case deps.PG != nil:
		g = gate.NewLease(deps.PG)
	default:
		panic("hotscore module requires redis or postgres for the recompute gate")
	}

	var pub dom.Publisher
	var cons dom.Consumer
	useNATS := deps.Bus != nil && deps.Bus.JS != nil
	switch strings.ToLower(opts.Queue) {
	case QueueNATS:
		if !useNATS {
			panic("hotscore module: HOTSCORE_QUEUE=nats but nats is not connected")
		}
	case QueueLocal:
		useNATS = false
	}
	if useNATS {
		m.js = queue.NewJetStream(deps.Bus.JS, queue.Config{
			Stream:     opts.Stream,
			Subject:    opts.Subject,
			Durable:    opts.Durable,
			Batch:      opts.FetchBatch,
			MaxDeliver: opts.MaxDeliver,
		})
		pub, cons, m.backend = m.js, m.js, QueueNATS
	} else {
		m.local = queue.NewLocal(opts.LocalQueueSize, opts.Workers)
		pub, cons, m.backend = m.local, m.local, QueueLocal
	}

	var clicks service.ClickHistory
	if deps.CH != nil {
		clicks = attrrepo.NewClicks(deps.CH)
	}

	m.svc = service.NewFromDeps(deps, service.Backends{
		Clicks:   clicks,
		Gate:     g,
		Queue:    pub,
		Consumer: cons,
	}, service.Config{
		LockTTL:      opts.LockTTL,
		Timeout:      opts.Timeout,
		HistoryLimit: opts.HistoryLimit,
	})

	m.ports = Ports{
		Worker:    m.svc,
		Enqueuer:  m.svc,
		Recompute: m.svc,
	}
	return m
}

func merge(opts *Options, o Options) {
	if o.LockTTL != 0 {
		opts.LockTTL = o.LockTTL
	}
	if o.Timeout != 0 {
		opts.Timeout = o.Timeout
	}
	if o.HistoryLimit != 0 {
		opts.HistoryLimit = o.HistoryLimit
	}
	if o.Queue != "" {
		opts.Queue = o.Queue
	}
	if o.LocalQueueSize != 0 {
		opts.LocalQueueSize = o.LocalQueueSize
	}
	if o.Workers != 0 {
		opts.Workers = o.Workers
	}
	if o.Stream != "" {
		opts.Stream = o.Stream
	}
	if o.Subject != "" {
		opts.Subject = o.Subject
	}
	if o.Durable != "" {
		opts.Durable = o.Durable
	}
	if o.FetchBatch != 0 {
		opts.FetchBatch = o.FetchBatch
	}
	if o.MaxDeliver != 0 {
		opts.MaxDeliver = o.MaxDeliver
	}
}

// Prepare creates the stream when the queue is jetstream
func (m *Module) Prepare(ctx context.Context) error {
	if m.js == nil {
		return nil
	}
	if err := m.js.Ensure(ctx); err != nil {
		return err
	}
	logger.Named("hotscore").Info().Str("backend", m.backend).Msg("recompute queue ready")
	return nil
}

// InProcess reports whether requests only reach a worker in this process
func (m *Module) InProcess() bool { return m.local != nil }

// Backend names the queue backend
func (m *Module) Backend() string { return m.backend }

// Service exposes the concrete service for the cli
func (m *Module) Service() *service.Svc { return m.svc }

// Ports returns the module ports (Worker, Enqueuer, Recompute)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "hotscore" }

// Prefix returns the module config prefix (none for worker-only service)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
