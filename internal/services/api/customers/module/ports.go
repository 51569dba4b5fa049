package module

import (
	"context"

	"pimms/internal/services/api/customers/domain"
	csvc "pimms/internal/services/api/customers/service"
	hsdom "pimms/internal/services/hotscore/domain"
)

// Ports declares the injected worker port for this API module
type Ports struct {
	Enqueuer hsdom.EnqueuePort
}

// Ports returns the customers service port for webhooks
func (m *Module) Ports() any { return m.ports }

// adaptCustomersPort exposes service methods for cross-module usage
type adaptCustomersPort struct{ svc csvc.Service }

var _ domain.ServicePort = adaptCustomersPort{}

func (a adaptCustomersPort) Upsert(ctx context.Context, in domain.UpsertInput) (domain.UpsertResult, error) {
	return a.svc.Upsert(ctx, in)
}

func (a adaptCustomersPort) Get(ctx context.Context, workspaceID, customerID string) (domain.Customer, error) {
	return a.svc.Get(ctx, workspaceID, customerID)
}

func (a adaptCustomersPort) HotScore(ctx context.Context, workspaceID, customerID string) (domain.HotScoreView, error) {
	return a.svc.HotScore(ctx, workspaceID, customerID)
}
