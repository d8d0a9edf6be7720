// Command comprehend-replay re-ingests analysis archives that are already in the object store
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http/bind"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/objstore"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"

	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"
	resultsmod "github.com/ferroh-aws/transcribe-comprehend/internal/services/results/module"
)

// keyList collects repeated -key flags
type keyList []string

func (k *keyList) String() string { return strings.Join(*k, ",") }

func (k *keyList) Set(v string) error {
	if v = strings.TrimSpace(v); v != "" {
		*k = append(*k, v)
	}
	return nil
}

// parseArgs turns the command line into a notification batch
// keys come from repeated -key flags followed by positional arguments
func parseArgs(args []string, stderr io.Writer) ([]domain.Notification, error) {
	fs := flag.NewFlagSet("comprehend-replay", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var keys keyList
	bucket := fs.String("bucket", "", "bucket holding the analysis archives")
	fs.Var(&keys, "key", "object key to replay; repeatable")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for _, a := range fs.Args() {
		_ = keys.Set(a)
	}

	if *bucket == "" {
		return nil, errors.New("-bucket is required")
	}
	if len(keys) == 0 {
		return nil, errors.New("at least one -key is required")
	}
	if len(keys) > domain.MaxBatch {
		return nil, fmt.Errorf("at most %d keys per run, got %d", domain.MaxBatch, len(keys))
	}

	batch := make([]domain.Notification, 0, len(keys))
	for _, k := range keys {
		batch = append(batch, domain.Notification{Bucket: *bucket, Key: k})
	}
	if err := bind.Validate(context.Background(), domain.ReplayInput{Notifications: batch}); err != nil {
		return nil, err
	}
	return batch, nil
}

// writeReport prints the report as indented JSON and returns the process exit code
func writeReport(w io.Writer, rep domain.Report) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return 2
	}
	if rep.HasFailures() {
		return 1
	}
	return 0
}

func main() {
	batch, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: "comprehend-replay",
		PG: store.PGConfig{
			Enabled:     pgURL != "",
			URL:         pgURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chURL != "",
			URL:        chURL,
			ClientName: "comprehend",
			ClientTag:  "replay",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}

	obj, err := objstore.Open(ctx, objstore.FromConfig(root.Prefix("SERVICE_OBJSTORE_")))
	if err != nil {
		l.Panic().Err(err).Msg("objstore.Open failed")
	}

	deps := modkit.Deps{Log: *l, Cfg: root, Obj: obj}
	if st.PG != nil {
		deps.PG = st.PG
	}
	if st.CH != nil {
		deps.CH = st.CH
	}

	m := resultsmod.NewWithOptions(deps, resultsmod.FromConfig(root))
	rep := m.Handler().Handle(ctx, batch)

	code := writeReport(os.Stdout, rep)
	if err := st.Close(context.Background()); err != nil {
		l.Error().Err(err).Msg("failed to close store")
	}
	stop()
	os.Exit(code)
}
