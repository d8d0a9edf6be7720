// @title         comprehend-sink
// @version       0.1.0
// @description   Ingests text analysis archives into CSV artifacts and the job status table

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/repokit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/objstore"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"

	"github.com/ferroh-aws/transcribe-comprehend/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // status table lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // ingest ledger lives under SERVICE_CLICKHOUSE_*
	objCfg := root.Prefix("SERVICE_OBJSTORE_")

	// bring up logging early
	l := logger.Get()

	// both databases are optional; without a DBURL the store leaves the seam nil
	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "comprehend-sink",
			PG: store.PGConfig{
				Enabled:     pgURL != "",
				URL:         pgURL,
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled:    chURL != "",
				URL:        chURL,
				ClientName: "comprehend",
				ClientTag:  "sink",
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	obj, err := objstore.Open(ctx, objstore.FromConfig(objCfg))
	if err != nil {
		l.Panic().Err(err).Msg("objstore.Open failed")
	}
	repokit.MustPing(ctx, "objstore", obj)

	// http server (reads CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Objects:        obj,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// run until SIGINT or SIGTERM
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("comprehend-sink stopped")
}
