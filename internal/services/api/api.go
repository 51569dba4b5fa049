// Package api provides the HTTP API for the application
package api

import (
	"pimms/internal/platform/config"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	phttp "pimms/internal/platform/net/http"
	"pimms/internal/platform/store"

	"pimms/internal/modkit"
	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/module"
	"pimms/internal/modkit/swaggerkit"

	cdom "pimms/internal/services/api/customers/domain"
	customersmod "pimms/internal/services/api/customers/module"
	metamod "pimms/internal/services/api/meta/module"
	webhooksmod "pimms/internal/services/api/webhooks/module"

	// Worker hotscore module (owns the Enqueuer port)
	hotscoremod "pimms/internal/services/hotscore/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	EnableSwagger  bool
	EnableProfiler bool
}

// Runtime exposes the modules main has to start or drain
type Runtime struct {
	Hotscore  *hotscoremod.Module
	Customers *customersmod.Module
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) *Runtime {
	// shared deps for modules
	deps := modkit.FromStore(opt.Store, opt.Config, opt.Metrics)

	// Construct the WORKER hotscore module first and extract its Enqueuer port
	workerHotscore := hotscoremod.New(deps, hotscoremod.Options{})
	enq := module.MustPortsOf[hotscoremod.Ports](workerHotscore).Enqueuer

	// Inject that Enqueuer into the customers module, then customers into webhooks
	apiCustomers := customersmod.New(
		deps,
		modkit.WithSwagger(opt.EnableSwagger),
		modkit.WithPorts(customersmod.Ports{
			Enqueuer: enq,
		}),
	)
	customers := module.MustPortsOf[cdom.ServicePort](apiCustomers)

	apiWebhooks := webhooksmod.New(
		deps,
		modkit.WithSwagger(opt.EnableSwagger),
		modkit.WithPorts(webhooksmod.Ports{
			Customers: customers,
		}),
	)

	mods := []module.Module{
		metamod.New(deps, modkit.WithSwagger(opt.EnableSwagger)),
		apiCustomers,
		apiWebhooks,
	}

	if opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.Prefix("CORE_API_")), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	return &Runtime{
		Hotscore:  workerHotscore,
		Customers: apiCustomers.(*customersmod.Module),
	}
}
