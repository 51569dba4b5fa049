// Package module wires customers into the API using modkit
package module

import (
	"context"

	modkit "pimms/internal/modkit"
	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/swaggerkit"

	chttp "pimms/internal/services/api/customers/http"
	crepo "pimms/internal/services/api/customers/repo"
	csvc "pimms/internal/services/api/customers/service"
)

// Module serves customer reads and the hot score endpoint, and hands webhooks the upsert port
type Module struct {
	b     modkit.Built
	ports any
	svc   *csvc.Svc
}

// New constructs the customers module, the Enqueuer port comes from services/hotscore
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("customers"),
		modkit.WithPrefix("/workspaces"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Enqueuer == nil {
		panic("customers API module requires Enqueuer port (from services/hotscore)")
	}

	svc := csvc.New(deps.PG, crepo.NewPG(), injected.Enqueuer, deps.Metrics, csvc.Config{
		EnqueueTimeout: cfg.EnqueueTimeout,
	})

	if b.SwaggerOn {
		swaggerkit.Describe(chttp.Operations...)
	}
	return &Module{b: b, svc: svc, ports: adaptCustomersPort{svc: svc}}
}

// Drain waits for detached recompute enqueues, call it on shutdown
func (m *Module) Drain(ctx context.Context) error { return m.svc.Drain(ctx) }

// MountRoutes mounts the customer routes under /workspaces
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { chttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.b.Prefix }
