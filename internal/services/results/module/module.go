// Package module wires result ingestion into the API using modkit
package module

import (
	"crypto/subtle"

	"github.com/ferroh-aws/transcribe-comprehend/internal/adapters/ingest/archive"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/httpkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/repokit"
	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"
	resultshttp "github.com/ferroh-aws/transcribe-comprehend/internal/services/results/http"
	resultsrepo "github.com/ferroh-aws/transcribe-comprehend/internal/services/results/repo"
	resultssvc "github.com/ferroh-aws/transcribe-comprehend/internal/services/results/service"
)

// webhookCaller is the caller id recorded for token authenticated webhook requests
const webhookCaller = "webhook"

// Module ingests analysis results through the webhook and replay endpoints
type Module struct {
	modkit.Base
	opts  Options
	ports Ports
}

// New constructs the results module; deps.Obj is required, deps.PG and deps.CH are optional
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	return NewWithOptions(deps, FromConfig(deps.Cfg), opts...)
}

// NewWithOptions constructs the module from explicit options instead of config
func NewWithOptions(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	if deps.Obj == nil {
		panic("results module requires an object store")
	}

	reader := archive.NewReader(deps.Obj, archive.WithTempDir(o.TmpDir), archive.WithMaxBytes(o.MaxArchiveBytes),
		archive.WithMaxExpandedBytes(o.MaxExpandedBytes))

	var ledger domain.LedgerRepo
	if deps.CH != nil {
		ledger = resultsrepo.NewLedger(deps.CH, o.LedgerTable)
	}

	db := deps.PG
	if db != nil && o.Timeouts.Write > 0 {
		db = repokit.WithBeginHooks(db, resultsrepo.StatementTimeout(o.Timeouts.Write))
	}

	svc := resultssvc.New(
		db, resultsrepo.NewPG(o.StatusTable),
		reader, deps.Obj, ledger,
		resultssvc.Config{
			OutputBucket: o.OutputBucket,
			OutputPrefix: o.OutputPrefix,
			Timeouts:     o.Timeouts,
		},
	)

	return &Module{
		Base:  modkit.NewBase("results", "/results", opts...),
		opts:  o,
		ports: Ports{Handler: svc},
	}
}

// MountRoutes implements modkit.Module; a configured webhook token guards both endpoints
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) {
		mount := func(gr httpkit.Router) {
			resultshttp.Register(gr, m.ports.Handler, resultshttp.Options{Strict: m.opts.Strict})
		}
		if m.opts.WebhookToken == "" {
			mount(rr)
			return
		}
		httpkit.Protected(rr, tokenPort(m.opts.WebhookToken), mount)
	})
}

// tokenPort accepts exactly one shared bearer token
func tokenPort(want string) *httpkit.Port {
	return httpkit.NewPortFunc(func(token string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			return "", perr.Unauthorizedf("invalid bearer token")
		}
		return webhookCaller, nil
	})
}
