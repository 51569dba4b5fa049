package middleware_test

import (
	"compress/flate"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pimms/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

func TestRequestID_RealIP(t *testing.T) {
	var gotID, gotAddr string
	h := middleware.RequestID()(middleware.RealIP()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = chimw.GetReqID(r.Context())
		gotAddr = r.RemoteAddr
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "abc-123", gotID)
	require.Equal(t, "203.0.113.7", gotAddr)
}

func TestCompress(t *testing.T) {
	h := middleware.Compress(flate.BestSpeed)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"` + strings.Repeat("x", 4096) + `"}`))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestNoCache_StripSlashes(t *testing.T) {
	var path string
	h := middleware.NoCache()(middleware.StripSlashes()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/tally/", nil))
	require.NotEmpty(t, rec.Header().Get("Cache-Control"))
	require.Equal(t, "/webhooks/tally", path)
}

func TestTimeout_CancelsContext(t *testing.T) {
	h := middleware.Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestThrottleBacklog_RejectsOverflow(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	h := middleware.ThrottleBacklog(1, 0, 10*time.Millisecond)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		entered <- struct{}{}
		<-release
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}()
	<-entered

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	close(release)
	wg.Wait()
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://app.pimms.io"}})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/workspaces/ws_1/customers/cus_1", nil)
	req.Header.Set("Origin", "https://app.pimms.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "https://app.pimms.io", rec.Header().Get("Access-Control-Allow-Origin"))
}
