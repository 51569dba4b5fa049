// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"pimms/internal/core/version"
	"pimms/internal/modkit/httpkit"
	"pimms/internal/modkit/swaggerkit"
)

// Pinger reports whether a backend answers
type Pinger interface {
	Ping(stdctx.Context) error
}

// Dependency is one backend /meta/ready pings, a nil Pinger is reported as skipped
type Dependency struct {
	Name string
	// Required backends fail readiness when down or missing, others only degrade it
	Required bool
	Pinger   Pinger
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName  string
	StartedAt    time.Time
	Dependencies []Dependency
}

type handlers struct {
	deps Deps
}

// Operations lists the routes for the api docs
var Operations = []swaggerkit.Operation{
	{Method: http.MethodGet, Path: "/meta/health", Summary: "Health check", Tag: "Meta"},
	{Method: http.MethodGet, Path: "/meta/ready", Summary: "Readiness with dependency checks", Tag: "Meta"},
	{Method: http.MethodGet, Path: "/meta/version", Summary: "Build and version info", Tag: "Meta"},
	{Method: http.MethodGet, Path: "/meta/service", Summary: "Service info and uptime", Tag: "Meta"},
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	// mount routes
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"pimms-api"`
	Started string `json:"started"  example:"2025-09-03T13:00:00Z"`
	Now     string `json:"now"      example:"2025-09-03T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2025-09-03T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"pimms-api"`
	Started string `json:"started" example:"2025-09-03T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Failure 503 type ReadyResponse a required dependency is down
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	overall := "ok"
	checks := make([]ReadyCheck, 0, len(h.deps.Dependencies))
	for _, d := range h.deps.Dependencies {
		c := ReadyCheck{Name: d.Name, Status: "ok"}
		if d.Pinger == nil {
			c.Status = "skipped"
		} else if err := d.Pinger.Ping(ctx); err != nil {
			c.Status, c.Error = "fail", err.Error()
		}
		checks = append(checks, c)

		switch {
		case c.Status == "ok" || (c.Status == "skipped" && !d.Required):
		case c.Status == "fail" && d.Required:
			overall = "fail"
		case overall == "ok":
			overall = "degraded"
		}
	}

	out := ReadyResponse{
		Status: overall,
		Checks: checks,
		Now:    time.Now().UTC().Format(time.RFC3339),
	}
	if overall == "fail" {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 type ServiceResponse ok
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	uptime := time.Since(h.deps.StartedAt)
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
	}, nil
}
