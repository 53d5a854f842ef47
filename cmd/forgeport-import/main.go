package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"forgeport/internal/adapters/relay"
	"forgeport/internal/eventlog"
	"forgeport/internal/modkit"
	"forgeport/internal/modkit/module"
	"forgeport/internal/modkit/repokit"
	"forgeport/internal/platform/config"
	"forgeport/internal/platform/logger"
	"forgeport/internal/platform/store"
	ptime "forgeport/internal/platform/time"

	impdom "forgeport/internal/services/importer/domain"
	impmod "forgeport/internal/services/importer/module"
	impsvc "forgeport/internal/services/importer/service"
)

func parseSince(v string) *time.Time {
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return ptime.Ptr(t.UTC())
		}
	}
	logger.Get().Panic().Str("since", v).Msg("bad -since, want YYYY-MM-DD or RFC3339")
	return nil
}

func main() {
	root := config.New()
	fp := root.Prefix("FORGEPORT_")
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	var (
		fRepo       = flag.String("repo", "", "repository to import (URL or owner/repo)")
		fToken      = flag.String("token", "", "provider token (or FORGEPORT_GH_TOKEN)")
		fRelays     = flag.String("relays", "", "comma-separated relay URLs (or FORGEPORT_RELAYS)")
		fIdentity   = flag.String("identity", "", "hex seed of the announcing identity (or FORGEPORT_IDENTITY_SEED)")
		fIssues     = flag.Bool("issues", true, "mirror issues")
		fPulls      = flag.Bool("pulls", true, "mirror pull requests")
		fComments   = flag.Bool("comments", true, "mirror comments")
		fFork       = flag.Bool("fork", false, "fork the repository when the token does not own it")
		fForkName   = flag.String("fork-name", "", "name for the fork (default: <repo>-imported)")
		fSince      = flag.String("since", "", "only items updated at/after this date (UTC) YYYY-MM-DD or RFC3339")
		fBatch      = flag.Int("batch", 0, "publish batch size (0 = default)")
		fBatchDelay = flag.Duration("batch-delay", 0, "pause between publish batches (0 = default)")
		fArchive    = flag.Bool("archive", false, "record the run in Postgres (SERVICE_PGSQL_DBURL)")
	)
	flag.Parse()

	repoURL := *fRepo
	if repoURL == "" && flag.NArg() > 0 {
		repoURL = flag.Arg(0)
	}
	if repoURL == "" {
		l.Panic().Msg("-repo is required")
	}
	token := *fToken
	if token == "" {
		token = fp.MayString("GH_TOKEN", "")
	}
	if token == "" {
		l.Panic().Msg("a provider token is required (-token or FORGEPORT_GH_TOKEN)")
	}
	relaysCSV := *fRelays
	if relaysCSV == "" {
		relaysCSV = fp.MayString("RELAYS", "")
	}
	relays := splitCSV(relaysCSV)
	if len(relays) == 0 {
		l.Panic().Msg("at least one relay is required (-relays or FORGEPORT_RELAYS)")
	}
	seed := *fIdentity
	if seed == "" {
		seed = fp.MayString("IDENTITY_SEED", "")
	}
	identity, err := eventlog.KeypairFromSecret(seed)
	if err != nil {
		l.Panic().Err(err).Msg("bad announcing identity (-identity or FORGEPORT_IDENTITY_SEED)")
	}

	deps := modkit.Deps{Cfg: root, Log: *l}
	if *fArchive {
		st, err := store.Open(context.Background(), store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         dbCfg.MustString("DBURL"),
				MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
				LogSQL:      dbCfg.MayBool("LOG_SQL", false),
			},
		}, store.WithLogger(*l))
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		repokit.MustGuard(context.Background(), st)
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		deps.PG = st.PG
	}

	rc := relay.New(relays)

	im := impmod.New(
		deps,
		impmod.Options{
			BatchSize:  *fBatch,
			BatchDelay: *fBatchDelay,
		},
		impsvc.WithCallbacks(identity.Sign, rc.Publish),
		impsvc.WithEventFetcher(rc.Fetch),
		impsvc.WithProgress(func(p impdom.Progress) {
			l.Info().
				Str("step", p.Step).
				Int("current", p.Current).
				Int("total", p.Total).
				Msg("progress")
		}),
	)
	module.Register(im.Name(), im.Ports())
	port := module.MustPortsOf[impmod.Ports](im).Importer

	// first signal aborts cooperatively, a second one kills the process
	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		l.Warn().Msg("interrupt received, finishing current step")
		port.AbortImport("interrupted")
		<-sigc
		os.Exit(130)
	}()

	cfg := impdom.Config{
		MirrorIssues:   *fIssues,
		MirrorPulls:    *fPulls,
		MirrorComments: *fComments,
		ForkIfNotOwner: *fFork,
		ForkName:       *fForkName,
		Since:          parseSince(*fSince),
		Relays:         relays,
		BatchSize:      *fBatch,
		BatchDelay:     *fBatchDelay,
	}

	res, err := port.ImportRepository(context.Background(), repoURL, token, cfg)
	if err != nil {
		l.Error().Err(err).Msg("import failed")
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	os.Stdout.Write(append(out, '\n'))
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
