package modkit

import (
	"net/http"

	"pimms/internal/modkit/httpkit"
	str "pimms/internal/platform/strings"
)

// Built is the resolved module configuration
type Built struct {
	Name      string
	Prefix    string
	Mw        []func(http.Handler) http.Handler
	Ports     any
	SwaggerOn bool

	// Subrouter wraps the prefixed router before Register runs, identity by default
	Subrouter func(httpkit.Router) httpkit.Router
	// Register adds routes next to the module's own, no-op by default
	Register func(httpkit.Router)
}

// Option adjusts a Built, later options win
type Option func(*Built)

// Build applies opts over the zero Built and fills the hook defaults
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	if b.Subrouter == nil {
		b.Subrouter = func(r httpkit.Router) httpkit.Router { return r }
	}
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}

// Mount adds routes under Prefix behind the module middleware, then runs the Subrouter and Register hooks
func (b Built) Mount(r httpkit.Router, routes func(httpkit.Router)) {
	r.Route(str.MustPrefix(b.Prefix), func(rr httpkit.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		rr = b.Subrouter(rr)
		routes(rr)
		b.Register(rr)
	})
}

// WithName names the module in logs and errors
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix is the mount path under /api/v1
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends middleware run only for this module's routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands the module the ports it needs from other modules, typed by the receiver
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithSwagger describes the module's operations in the served openapi document
func WithSwagger(on bool) Option { return func(b *Built) { b.SwaggerOn = on } }

// WithSubrouter sets Built.Subrouter
func WithSubrouter(fn func(httpkit.Router) httpkit.Router) Option {
	return func(b *Built) { b.Subrouter = fn }
}

// WithRegister sets Built.Register
func WithRegister(fn func(httpkit.Router)) Option { return func(b *Built) { b.Register = fn } }
