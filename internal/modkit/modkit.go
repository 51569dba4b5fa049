// Package modkit builds API modules from shared deps and options
package modkit

import "pimms/internal/modkit/module"

// Module is what api.Mount composes, see module.Module
type Module = module.Module
