package httpkit

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Param returns a trimmed route parameter, empty when absent
func Param(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

// ParamOrQuery returns the route parameter, falling back to the query string
func ParamOrQuery(r *http.Request, key, query string) string {
	if v := Param(r, key); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get(query))
}
