// Package httpkit is what modules import for routing and responses
// modules do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "pimms/internal/platform/net/http"
)

type (
	// Envelope is the response body, referenced by api docs
	Envelope = phttp.Envelope

	// Response lets a handler pick a status other than 200
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// Call adapts a value-or-error handler to the envelope
// a returned Response is written as is, any other value is wrapped in a 200
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(phttp.Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}
