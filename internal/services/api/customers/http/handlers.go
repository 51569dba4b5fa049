// Package http provides http transport for customers
package http

import (
	stdhttp "net/http"

	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/swaggerkit"
	"pimms/internal/services/api/customers/domain"
)

// Operations lists the routes for the api docs
var Operations = []swaggerkit.Operation{
	{Method: stdhttp.MethodGet, Path: "/workspaces/{workspaceID}/customers/{customerID}", Summary: "Customer record", Tag: "customers"},
	{Method: stdhttp.MethodGet, Path: "/workspaces/{workspaceID}/customers/{customerID}/hot-score", Summary: "Stored hot score with reasons and hot windows", Tag: "customers"},
}

// Register mounts the router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/{workspaceID}/customers/{customerID}", h.get)
	httpkit.Get(r, "/{workspaceID}/customers/{customerID}/hot-score", h.hotScore)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route GET /workspaces/{workspaceID}/customers/{customerID} Customers get
// @Summary Customer record
// @Tags customers
// @Produce json
// @Param workspaceID path string true "Workspace id"
// @Param customerID path string true "Customer id"
// @Success 200 {object} domain.Customer "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /workspaces/{workspaceID}/customers/{customerID} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "workspaceID"), httpkit.Param(r, "customerID"))
}

// swagger:route GET /workspaces/{workspaceID}/customers/{customerID}/hot-score Customers hotScore
// @Summary Stored hot score with reasons and hot windows
// @Tags customers
// @Produce json
// @Param workspaceID path string true "Workspace id"
// @Param customerID path string true "Customer id"
// @Success 200 {object} domain.HotScoreView "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /workspaces/{workspaceID}/customers/{customerID}/hot-score [get]
func (h *handlers) hotScore(r *stdhttp.Request) (any, error) {
	return h.svc.HotScore(r.Context(), httpkit.Param(r, "workspaceID"), httpkit.Param(r, "customerID"))
}
