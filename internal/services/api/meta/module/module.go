// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"
	"time"

	modkit "pimms/internal/modkit"
	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/swaggerkit"
	str "pimms/internal/platform/strings"

	metahttp "pimms/internal/services/api/meta/http"

	"github.com/redis/go-redis/v9"
)

// ServiceName is reported by health, version and service
const ServiceName = "pimms-api"

// Module serves health, readiness, version and service info
type Module struct {
	b         modkit.Built
	deps      modkit.Deps
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)
	if b.SwaggerOn {
		swaggerkit.Describe(metahttp.Operations...)
	}
	return &Module{b: b, deps: deps, startedAt: time.Now()}
}

// MountRoutes mounts the meta routes under /meta
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName:  ServiceName,
			StartedAt:    m.startedAt,
			Dependencies: dependencies(m.deps),
		})
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.b.Name, "meta module name") }

// Ports returns nil, meta exports nothing
func (m *Module) Ports() any { return nil }

type redisPing struct{ c redis.UniversalClient }

func (p redisPing) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

// dependencies are the readiness checks, postgres and clickhouse serve every webhook
// while redis and nats have fallbacks
func dependencies(d modkit.Deps) []metahttp.Dependency {
	out := []metahttp.Dependency{
		{Name: "pg", Required: true, Pinger: asPinger(d.PG)},
		{Name: "ch", Required: true, Pinger: asPinger(d.CH)},
		{Name: "redis"},
		{Name: "nats"},
	}
	if d.RDS != nil {
		out[2].Pinger = redisPing{c: d.RDS}
	}
	if d.Bus != nil {
		out[3].Pinger = d.Bus
	}
	return out
}

func asPinger(v any) metahttp.Pinger {
	p, _ := v.(metahttp.Pinger)
	return p
}
