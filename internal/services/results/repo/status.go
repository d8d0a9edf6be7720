// Package repo provides the status table and ingest ledger stores for result ingestion
package repo

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/repokit"
	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"

	"github.com/jackc/pgx/v5"
)

// DefaultStatusTable is the status table used when none is configured
const DefaultStatusTable = "jobs"

type (
	// PG implements domain.StatusRepo on a postgres table keyed by id with a jsonb attrs column
	PG struct{ table string }

	// statusQueries holds the bound queryer and the rendered update
	statusQueries struct {
		q   repokit.Queryer
		sql string
	}
)

// NewPG creates a binder for the status table; table may be schema qualified
func NewPG(table string) repokit.Binder[domain.StatusRepo] {
	if table == "" {
		table = DefaultStatusTable
	}
	return PG{table: table}
}

// Bind binds a Postgres queryer to the StatusRepo implementation
func (p PG) Bind(q repokit.Queryer) domain.StatusRepo {
	return &statusQueries{q: q, sql: updateSQL(p.table)}
}

// updateSQL replaces one key of attrs and leaves the others alone
func updateSQL(table string) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return `
update ` + ident + `
set attrs = coalesce(attrs, '{}'::jsonb) || jsonb_build_object($2::text, $3::jsonb),
    updated_at = now()
where id = $1
`
}

func (r *statusQueries) UpdateAttribute(ctx context.Context, jobID, attribute string, values any) error {
	if jobID == "" || attribute == "" {
		return perr.InvalidArgf("status: job id and attribute are required")
	}
	body, err := json.Marshal(values)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "status: encode %s", attribute)
	}

	err = store.ExecOne(ctx, r.q, r.sql, jobID, attribute, string(body))
	switch {
	case err == nil:
		return nil
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return perr.WithField(perr.NotFoundf("status: no row with id %q", jobID), "id")
	case perr.IsCode(err, perr.ErrorCodeDB):
		return err
	}
	return perr.FromPostgresf(err, "status: update %s for %s", attribute, jobID)
}

// StatementTimeout bounds every statement of a status transaction on the server side
// it runs as a begin hook so the setting is local to the transaction
func StatementTimeout(d time.Duration) repokit.BeginHook {
	ms := strconv.FormatInt(d.Milliseconds(), 10)
	return func(ctx context.Context, q repokit.Queryer) error {
		if _, err := q.Exec(ctx, `select set_config('statement_timeout', $1, true)`, ms); err != nil {
			return perr.FromPostgresf(err, "status: set statement_timeout")
		}
		return nil
	}
}
