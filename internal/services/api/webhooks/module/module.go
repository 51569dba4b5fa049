// Package module wires webhook ingestion into the API using modkit
package module

import (
	"context"
	"fmt"
	"net/http"

	"pimms/internal/core/appconfig"
	modkit "pimms/internal/modkit"
	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/swaggerkit"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/net/middleware"

	cdom "pimms/internal/services/api/customers/domain"
	"pimms/internal/services/api/webhooks/domain"
	"pimms/internal/services/api/webhooks/guardrails"
	whttp "pimms/internal/services/api/webhooks/http"
	wrepo "pimms/internal/services/api/webhooks/repo"
	wsvc "pimms/internal/services/api/webhooks/service"
	attrrepo "pimms/internal/services/attribution/repo"
	attrsvc "pimms/internal/services/attribution/service"
)

// Module serves POST /webhooks/{app}/{workspace}
type Module struct {
	b   modkit.Built
	svc *wsvc.Svc
}

// Ports declares the injected customers port for this API module
type Ports struct {
	Customers cdom.ServicePort
}

// New constructs the webhooks module, the Customers port comes from the customers module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("webhooks"),
		modkit.WithPrefix("/webhooks"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Customers == nil {
		panic("webhooks API module requires Customers port (from api/customers)")
	}
	if deps.CH == nil {
		panic("webhooks API module requires a ClickHouse click store")
	}

	cfg := FromConfig(deps.Cfg)
	apps, err := appconfig.LoadFile(cfg.AppsFile)
	if err != nil {
		panic(fmt.Sprintf("webhooks: load app configs: %v", err))
	}
	if cfg.AppsFile != "" {
		logger.Named("webhooks").Info().Str("file", cfg.AppsFile).Strs("apps", apps.Names()).Msg("app config overlay loaded")
	}

	attr := attrsvc.New(attrrepo.NewClicks(deps.CH), attrrepo.NewPG().Bind(deps.PG))
	svc := wsvc.New(deps.PG, wrepo.NewPG(), attr, injected.Customers, deps.Metrics, wsvc.Config{
		Apps: apps,
		Timeouts: guardrails.Timeouts{
			Ingest: cfg.Timeout,
			Store:  cfg.StoreTimeout,
			Audit:  cfg.AuditTimeout,
		},
	})

	if cfg.MaxInflight > 0 {
		throttle := middleware.ThrottleBacklog(cfg.MaxInflight, cfg.Backlog, cfg.BacklogWait)
		b.Mw = append([]func(http.Handler) http.Handler{throttle}, b.Mw...)
	}
	if b.SwaggerOn {
		swaggerkit.Describe(whttp.Operations...)
		swaggerkit.Register(whttp.DocSignatureHeader)
	}
	return &Module{b: b, svc: svc}
}

// Ports returns the ingestion port for the cli and tests
func (m *Module) Ports() any { return adaptWebhooksPort{svc: m.svc} }

type adaptWebhooksPort struct{ svc wsvc.Service }

func (a adaptWebhooksPort) Ingest(ctx context.Context, d domain.Delivery) (domain.Outcome, error) {
	return a.svc.Ingest(ctx, d)
}

// MountRoutes mounts the delivery route behind the inflight throttle
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { whttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.b.Prefix }
