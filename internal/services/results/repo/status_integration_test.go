//go:build integration_pg

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/core/results"
	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/testkit"
)

func TestStatusUpdate_Integration(t *testing.T) {
	dsn := testkit.StartPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "comprehend-status-integration",
		PG:      store.PGConfig{Enabled: true, URL: dsn},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	if _, err := st.PG.Exec(ctx, `
create table jobs (
  id text primary key,
  attrs jsonb,
  updated_at timestamptz
)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.PG.Exec(ctx, `insert into jobs (id, attrs) values ('job-123', '{"KeyPhrases":[{"Text":"old","Score":0.1}],"owner":"ops"}')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := NewPG("jobs").Bind(st.PG)
	if err := r.UpdateAttribute(ctx, "job-123", "KeyPhrases", []results.Phrase{{Text: "hello", Score: 0.9}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Scalar[string](ctx, st.PG, `select attrs::text from jobs where id = 'job-123'`)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got != `{"owner": "ops", "KeyPhrases": [{"Text": "hello", "Score": 0.9}]}` {
		t.Fatalf("attrs = %s", got)
	}

	err = r.UpdateAttribute(ctx, "job-404", "KeyPhrases", []results.Phrase{})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing row: want NotFound, got %v", err)
	}

	err = NewPG("nope").Bind(st.PG).UpdateAttribute(ctx, "job-123", "KeyPhrases", []results.Phrase{})
	if !perr.IsCode(err, perr.ErrorCodeStorageWrite) {
		t.Fatalf("missing table: want StorageWrite, got %v", err)
	}
}
