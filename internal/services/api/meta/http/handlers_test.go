package http

import (
	stdctx "context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	phttp "pimms/internal/platform/net/http"
)

type pinger struct{ err error }

func (p pinger) Ping(stdctx.Context) error { return p.err }

func ready(t *testing.T, d Deps, want int) ReadyResponse {
	t.Helper()
	m := chi.NewRouter()
	phttp.AdaptChi(m).Route("/meta", func(rr phttp.Router) { Register(rr, d) })
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/meta/ready", nil))
	if rec.Code != want {
		t.Fatalf("status = %d, want %d", rec.Code, want)
	}
	var env struct {
		Data ReadyResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func deps(pg, ch, rds Pinger) Deps {
	return Deps{
		ServiceName: "pimms-api",
		StartedAt:   time.Now(),
		Dependencies: []Dependency{
			{Name: "pg", Required: true, Pinger: pg},
			{Name: "ch", Required: true, Pinger: ch},
			{Name: "redis", Pinger: rds},
			{Name: "nats"},
		},
	}
}

func TestReady_Statuses(t *testing.T) {
	down := pinger{err: errors.New("down")}

	got := ready(t, deps(pinger{}, pinger{}, nil), stdhttp.StatusOK)
	if got.Status != "ok" || len(got.Checks) != 4 || got.Checks[3].Status != "skipped" {
		t.Fatalf("optional stores skipped should be ok, got %+v", got)
	}

	if got := ready(t, deps(pinger{}, pinger{}, down), stdhttp.StatusOK).Status; got != "degraded" {
		t.Fatalf("redis down should degrade, got %s", got)
	}

	got = ready(t, deps(down, pinger{}, pinger{}), stdhttp.StatusServiceUnavailable)
	if got.Status != "fail" || got.Checks[0].Error != "down" {
		t.Fatalf("pg down should fail, got %+v", got)
	}

	if got := ready(t, deps(nil, pinger{}, nil), stdhttp.StatusOK).Status; got != "degraded" {
		t.Fatalf("missing pg should degrade, got %s", got)
	}
}

func TestHealthAndService(t *testing.T) {
	m := chi.NewRouter()
	d := deps(nil, nil, nil)
	d.StartedAt = time.Now().Add(-90 * time.Second)
	phttp.AdaptChi(m).Route("/meta", func(rr phttp.Router) { Register(rr, d) })

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/meta/service", nil))
	var env struct {
		Data ServiceResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Name != "pimms-api" || env.Data.Uptime < 90 {
		t.Fatalf("service = %+v", env.Data)
	}

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/meta/health", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}
