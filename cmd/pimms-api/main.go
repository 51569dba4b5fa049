// @title         Pimms API
// @version       0.1.0
// @description   Webhook ingestion and customer hot scores

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pimms/internal/platform/config"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	phttp "pimms/internal/platform/net/http"
	"pimms/internal/platform/store"

	"pimms/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// open the platform store (postgres + clickhouse, redis and nats when configured)
	st, err := store.Open(ctx, store.FromEnv(root, "pimms-api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	rt := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Metrics:        metrics.New("pimms"),
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := rt.Hotscore.Prepare(ctx); err != nil {
		l.Panic().Err(err).Msg("hotscore queue setup failed")
	}

	// a local queue only drains inside this process
	// the worker outlives ctx so drained enqueues still get scored
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	if rt.Hotscore.InProcess() {
		go func() {
			defer close(workerDone)
			if err := rt.Hotscore.Service().Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				l.Error().Err(err).Msg("in-process hotscore worker stopped")
			}
		}()
	} else {
		close(workerDone)
		l.Info().Str("backend", rt.Hotscore.Backend()).Msg("hotscore recomputes handled by pimms-scorer")
	}

	go func() {
		<-ctx.Done()
		grace := apiCfg.MayDuration("SHUTDOWN_GRACE", 15*time.Second)
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
		if err := rt.Customers.Drain(sctx); err != nil {
			l.Warn().Err(err).Msg("pending recompute enqueues not drained")
		}
		stopWorker()
	}()

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	<-ctx.Done()
	<-workerDone
}
