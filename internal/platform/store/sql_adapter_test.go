package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxFakeRow struct {
	scan func(dest ...any) error
}

func (r *pgxFakeRow) Scan(dest ...any) error {
	if r.scan != nil {
		return r.scan(dest...)
	}
	return nil
}

// pgxFakeRows implements pgx.Rows over in-memory values
type pgxFakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	idx    int
	err    error
	closed bool
}

func newPgxFakeRows(cols []string, data [][]any) *pgxFakeRows {
	fds := make([]pgconn.FieldDescription, len(cols))
	for i, c := range cols {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return &pgxFakeRows{fields: fds, data: data, idx: -1}
}

func (r *pgxFakeRows) Conn() *pgx.Conn                              { return nil }
func (r *pgxFakeRows) Close()                                       { r.closed = true }
func (r *pgxFakeRows) Err() error                                   { return r.err }
func (r *pgxFakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *pgxFakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *pgxFakeRows) RawValues() [][]byte                          { return nil }
func (r *pgxFakeRows) Values() ([]any, error)                       { return r.data[r.idx], nil }
func (r *pgxFakeRows) Next() bool {
	if r.err != nil {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}
func (r *pgxFakeRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	if len(row) != len(dest) {
		return errors.New("dest len mismatch")
	}
	for i := range dest {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

// pgxFakeTx implements pgx.Tx and records how it finished
type pgxFakeTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row

	committed, rolledBack bool
}

func (f *pgxFakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execFn != nil {
		return f.execFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}
func (f *pgxFakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, sql, args...)
	}
	return newPgxFakeRows([]string{"n"}, [][]any{{1}}), nil
}
func (f *pgxFakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.queryRowFn != nil {
		return f.queryRowFn(ctx, sql, args...)
	}
	return &pgxFakeRow{}
}
func (f *pgxFakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (f *pgxFakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *pgxFakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (f *pgxFakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}
func (f *pgxFakeTx) Conn() *pgx.Conn                       { return nil }
func (f *pgxFakeTx) Commit(context.Context) error          { f.committed = true; return nil }
func (f *pgxFakeTx) Rollback(context.Context) error        { f.rolledBack = true; return nil }
func (f *pgxFakeTx) Begin(context.Context) (pgx.Tx, error) { return f, nil }

type recTracer struct{ events []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.events = append(r.events, ev) }

func TestTraced_EmitsPerStatement(t *testing.T) {
	t.Parallel()

	fx := &pgxFakeTx{
		queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			return newPgxFakeRows([]string{"id", "attrs"}, [][]any{{"job-1", "{}"}}), nil
		},
		queryRowFn: func(context.Context, string, ...any) pgx.Row {
			return &pgxFakeRow{scan: func(dest ...any) error { return errors.New("no rows") }}
		},
	}
	tr := &recTracer{}
	q := traced{q: fx, tracer: tr, slowUS: 0}

	ct, err := q.Exec(context.Background(), "UPDATE jobs SET attrs = $2 WHERE id = $1", "job-1", "{}")
	if err != nil || ct.RowsAffected() != 1 || ct.String() != "UPDATE 1" {
		t.Fatalf("Exec = %v, %v", ct, err)
	}

	rs, err := q.Query(context.Background(), "SELECT id, attrs FROM jobs")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if cols := rs.Columns(); !reflect.DeepEqual(cols, []string{"id", "attrs"}) {
		t.Fatalf("Columns = %v", cols)
	}
	var id, attrs string
	if !rs.Next() || rs.Scan(&id, &attrs) != nil || id != "job-1" {
		t.Fatalf("scan mismatch")
	}
	rs.Close()

	var n int
	if err := q.QueryRow(context.Background(), "SELECT 1").Scan(&n); err == nil {
		t.Fatalf("expected scan error")
	}

	if len(tr.events) != 3 {
		t.Fatalf("events = %d, want 3", len(tr.events))
	}
	if tr.events[2].Err == nil {
		t.Fatalf("QueryRow event should carry the scan error")
	}
	if !tr.events[0].Slow {
		t.Fatalf("slowUS=0 marks every statement slow")
	}
}

func TestTraced_NoTracerAndSlowDisabled(t *testing.T) {
	t.Parallel()

	tr := &recTracer{}
	q := traced{q: &pgxFakeTx{}, tracer: tr, slowUS: -1}
	if _, err := q.Exec(context.Background(), "x"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if tr.events[0].Slow {
		t.Fatalf("negative slowUS must disable the slow flag")
	}

	silent := traced{q: &pgxFakeTx{}}
	if _, err := silent.Exec(context.Background(), "x"); err != nil {
		t.Fatalf("Exec without tracer: %v", err)
	}
}

func TestTraced_QueryError(t *testing.T) {
	t.Parallel()

	fx := &pgxFakeTx{queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
		return nil, errors.New("query failed")
	}}
	if rs, err := (traced{q: fx}).Query(context.Background(), "x"); err == nil || rs != nil {
		t.Fatalf("expected query error with nil rows")
	}
}

func TestRunTx_CommitAndRollback(t *testing.T) {
	t.Parallel()

	ok := &pgxFakeTx{}
	if err := runTx(context.Background(), ok, traced{q: ok}, func(q RowQuerier) error {
		_, err := q.Exec(context.Background(), "UPDATE 1")
		return err
	}); err != nil {
		t.Fatalf("runTx: %v", err)
	}
	if !ok.committed || ok.rolledBack {
		t.Fatalf("expected commit only")
	}

	bad := &pgxFakeTx{}
	boom := errors.New("boom")
	if err := runTx(context.Background(), bad, traced{q: bad}, func(RowQuerier) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("runTx err = %v", err)
	}
	if bad.committed || !bad.rolledBack {
		t.Fatalf("expected rollback only")
	}
}

func TestRowsErrPropagation(t *testing.T) {
	t.Parallel()

	fr := newPgxFakeRows([]string{"n"}, nil)
	fr.err = errors.New("boom")
	rs := rows{r: fr}
	if rs.Next() {
		t.Fatal("expected Next false when rows has error")
	}
	if err := rs.Err(); err == nil || err.Error() != "boom" {
		t.Fatalf("rows.Err mismatch: %v", err)
	}
	rs.Close()
	if !fr.closed {
		t.Fatalf("underlying rows not closed")
	}
}

func TestPGAdapter_NilPing(t *testing.T) {
	t.Parallel()

	var a *pgAdapter
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from nil adapter")
	}
}
