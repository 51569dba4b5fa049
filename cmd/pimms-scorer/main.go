package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"pimms/internal/modkit"
	"pimms/internal/modkit/module"
	"pimms/internal/platform/config"
	"pimms/internal/platform/logger"
	"pimms/internal/platform/metrics"
	phttp "pimms/internal/platform/net/http"
	"pimms/internal/platform/store"

	hotscoremod "pimms/internal/services/hotscore/module"
)

func main() {
	root := config.New()
	scorerCfg := root.Prefix("CORE_SCORER_")

	l := logger.Get()

	var (
		fWorkers = flag.Int("workers", 0, "concurrent recomputes (default HOTSCORE_WORKERS)")
		fBatch   = flag.Int("batch", 0, "jetstream fetch batch (default HOTSCORE_FETCH_BATCH)")
		fLockTTL = flag.Duration("lock_ttl", 0, "recompute gate ttl (default HOTSCORE_LOCK_TTL)")
		fMetrics = flag.Bool("metrics", true, "serve /metrics on CORE_SCORER_API_PORT")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "pimms-scorer"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	m := metrics.New("pimms")
	deps := modkit.FromStore(st, root, m)

	// a standalone scorer only makes sense against the shared nats stream
	mod := hotscoremod.New(deps, hotscoremod.Options{
		Queue:      hotscoremod.QueueNATS,
		Workers:    *fWorkers,
		FetchBatch: *fBatch,
		LockTTL:    *fLockTTL,
	})

	if err := mod.Prepare(ctx); err != nil {
		l.Panic().Err(err).Msg("hotscore queue setup failed")
	}

	if *fMetrics {
		srv := phttp.NewServer(scorerCfg)
		srv.Router().Handle("/metrics", m.Handler())
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				l.Error().Err(err).Msg("metrics shutdown")
			}
		}()
	}

	ports := module.MustPortsOf[hotscoremod.Ports](mod)

	l.Info().Str("backend", mod.Backend()).Msg("hotscore scorer running")
	if err := ports.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("hotscore worker failed")
	}
}
