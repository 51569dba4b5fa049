// Package module is the contract api.Mount composes and the port lookup between modules
// it sits apart from modkit so a module's own ports type can import it
package module

import phttp "pimms/internal/platform/net/http"

// Module mounts its routes and exposes the ports other modules consume
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	// Ports is a struct of interfaces or a single interface, nil when the module exports nothing
	Ports() any
}
