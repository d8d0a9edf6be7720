package repo

import (
	"context"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"
)

// DefaultLedgerTable is the clickhouse table outcomes land in when none is configured
const DefaultLedgerTable = "ingest_outcomes"

var ledgerColumns = []string{
	"batch_id", "at", "bucket", "object_key", "kind", "job_id", "status",
	"rows", "csv_key", "csv_written", "table_updated", "error_code", "error", "elapsed_ms",
}

// Ledger writes outcomes to clickhouse in one batch insert
type Ledger struct {
	ch    store.Clickhouse
	table string
}

// NewLedger returns a ledger over ch; a nil ch yields a ledger that drops rows
func NewLedger(ch store.Clickhouse, table string) *Ledger {
	if table == "" {
		table = DefaultLedgerTable
	}
	return &Ledger{ch: ch, table: table}
}

// Record inserts rows; empty batches and a disabled backend are no-ops
func (l *Ledger) Record(ctx context.Context, rows []domain.LedgerRow) error {
	if l == nil || l.ch == nil || len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, r := range rows {
		o := r.Outcome
		batch = append(batch, []any{
			r.BatchID, r.At.UTC(), o.Bucket, o.Key, string(o.Kind), o.JobID, string(o.Status),
			uint32(o.Rows), o.CSVKey, boolU8(o.CSVWritten), boolU8(o.TableUpdated), o.ErrCode, o.Err, uint32(o.ElapsedMS),
		})
	}
	if err := l.ch.Insert(ctx, l.table, ledgerColumns, batch); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "ledger: insert %d rows into %s", len(rows), l.table)
	}
	return nil
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
