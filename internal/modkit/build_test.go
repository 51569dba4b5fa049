package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pimms/internal/modkit/httpkit"
	phttp "pimms/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type enqueuerPorts struct{ Enqueuer func(string) }

func TestBuild_Defaults(t *testing.T) {
	b := Build()
	require.Empty(t, b.Name)
	require.Nil(t, b.Ports)
	require.Nil(t, b.Mw)

	var r httpkit.Router
	require.Equal(t, r, b.Subrouter(r))
	require.NotPanics(t, func() { b.Register(r) })
}

func TestBuild_AppliesOptionsInOrder(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return next }
	var registered bool
	b := Build(
		WithName("customers"),
		WithPrefix("/workspaces"),
		WithPrefix("/ws"),
		WithMiddlewares(mw),
		WithMiddlewares(mw, mw),
		WithPorts(enqueuerPorts{}),
		WithSwagger(true),
		WithRegister(func(httpkit.Router) { registered = true }),
	)

	require.Equal(t, "customers", b.Name)
	require.Equal(t, "/ws", b.Prefix)
	require.Len(t, b.Mw, 3)
	require.IsType(t, enqueuerPorts{}, b.Ports)
	require.True(t, b.SwaggerOn)

	b.Register(nil)
	require.True(t, registered)
}

func TestBuild_SubrouterHook(t *testing.T) {
	calls := 0
	b := Build(WithSubrouter(func(r httpkit.Router) httpkit.Router {
		calls++
		return r
	}))
	b.Subrouter(nil)
	require.Equal(t, 1, calls)
}

func TestBuild_CopiesMiddleware(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return next }
	opt := WithMiddlewares(mw)
	a, c := Build(opt), Build(opt)
	a.Mw[0] = nil
	require.NotNil(t, c.Mw[0])
}

func TestBuilt_Mount(t *testing.T) {
	var order []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "mw")
			next.ServeHTTP(w, r)
		})
	}
	b := Build(
		WithPrefix("webhooks/"),
		WithMiddlewares(mw),
		WithRegister(func(r httpkit.Router) {
			r.Get("/extra", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
		}),
	)

	mux := chi.NewRouter()
	b.Mount(phttp.AdaptChi(mux), func(r httpkit.Router) {
		r.Post("/{app}", func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
			w.WriteHeader(http.StatusOK)
		})
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/tally", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"mw", "handler"}, order)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/extra", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
}
