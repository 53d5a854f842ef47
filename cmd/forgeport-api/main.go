// @title         Forgeport API
// @version       0.1.0
// @description   Imports GitHub collaboration history into a signed event log

package main

import (
	"context"
	"strings"

	"forgeport/internal/adapters/relay"
	"forgeport/internal/eventlog"
	"forgeport/internal/modkit/repokit"
	"forgeport/internal/platform/config"
	"forgeport/internal/platform/logger"
	phttp "forgeport/internal/platform/net/http"
	"forgeport/internal/platform/store"

	"forgeport/internal/services/api"
	impsvc "forgeport/internal/services/importer/service"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	fp := root.Prefix("FORGEPORT_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	identity, err := eventlog.KeypairFromSecret(fp.MustString("IDENTITY_SEED"))
	if err != nil {
		l.Panic().Err(err).Msg("bad FORGEPORT_IDENTITY_SEED")
	}
	rc := relay.New(splitRelays(fp.MustString("RELAYS")))

	// the archive store is optional; without it runs are not recorded
	var st *store.Store
	if pgCfg.MayBool("ENABLED", false) {
		st, err = store.Open(
			context.Background(),
			store.Config{
				PG: store.PGConfig{
					Enabled:     true,
					URL:         pgCfg.MustString("DBURL"),
					MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
					SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
					LogSQL:      pgCfg.MayBool("LOG_SQL", true),
				},
			},
			store.WithLogger(*l),
		)
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		repokit.MustGuard(context.Background(), st)
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
	}

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config: apiCfg,
			Store:  st,
			Logger: l,
			ImporterOpts: []impsvc.Option{
				impsvc.WithCallbacks(identity.Sign, rc.Publish),
				impsvc.WithEventFetcher(rc.Fetch),
			},
			AdminToken:     fp.MayString("API_TOKEN", ""),
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", true),
		},
	)

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

func splitRelays(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
