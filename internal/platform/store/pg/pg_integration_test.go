//go:build integration_pg

package pg

import (
	"context"
	"testing"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/testkit"
)

func TestOpen_JSONBMerge_Integration(t *testing.T) {
	dsn := testkit.StartPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := Open(ctx, Config{URL: dsn, AppName: "comprehend-pg-integration"}, nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()

	conn := AcquireConn(t, p, ctx)

	var app string
	if err := conn.QueryRow(ctx, `select current_setting('application_name')`).Scan(&app); err != nil {
		t.Fatalf("app name: %v", err)
	}
	if app != "comprehend-pg-integration" {
		t.Fatalf("application_name = %q", app)
	}

	// the status update relies on top-level jsonb replacement
	var merged string
	err = conn.QueryRow(ctx,
		`select ('{"KeyPhrases":[1],"other":true}'::jsonb || jsonb_build_object($1::text, $2::jsonb))::text`,
		"KeyPhrases", `[{"Text":"a","Score":0.5}]`,
	).Scan(&merged)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged != `{"other": true, "KeyPhrases": [{"Text": "a", "Score": 0.5}]}` {
		t.Fatalf("merged = %s", merged)
	}
}
