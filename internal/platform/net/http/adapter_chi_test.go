package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func header(name string) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			w.Header().Add("X-Seen", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestAdaptChi_NestingAndMiddleware(t *testing.T) {
	m := chi.NewRouter()
	r := AdaptChi(m)
	r.Use(header("root"))

	r.Route("/api/v1", func(api Router) {
		api.Use(header("api"))
		api.Group(func(g Router) {
			g.Use(header("group"))
			g.Get("/customers/{id}", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				_, _ = w.Write([]byte(chi.URLParam(req, "id")))
			})
		})
		api.Post("/webhooks/{app}", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
			w.WriteHeader(stdhttp.StatusAccepted)
		})
		require.NotNil(t, api.Mux())
	})
	r.Handle("/metrics", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		_, _ = w.Write([]byte("m"))
	}))

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/customers/cus_1", nil))
	require.Equal(t, "cus_1", rec.Body.String())
	require.Equal(t, []string{"root", "api", "group"}, rec.Header().Values("X-Seen"))

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodPost, "/api/v1/webhooks/tally", nil))
	require.Equal(t, stdhttp.StatusAccepted, rec.Code)
	require.Equal(t, []string{"root", "api"}, rec.Header().Values("X-Seen"))

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/webhooks/tally", nil))
	require.Equal(t, stdhttp.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	require.Equal(t, "m", rec.Body.String())
}
