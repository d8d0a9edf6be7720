package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"select 1", "select 1"},
		{"  select   1  ", " select 1 "},
		{"UPDATE\t\"jobs\"\nSET  attrs = $2", "UPDATE \"jobs\" SET attrs = $2"},
		{"", ""},
	}
	for i, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("case %d: compact(%q) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

type logLine struct {
	Level     string  `json:"level"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Slow      bool    `json:"slow"`
	SQL       string  `json:"sql"`
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	Component string  `json:"component"`
	BatchID   string  `json:"batch_id"`
}

func TestTracerLevelsAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))

	cases := []struct {
		name  string
		ev    QueryEvent
		level string
	}{
		{"ok", QueryEvent{SQL: "SELECT\n1", ElapsedUS: 1500}, "info"},
		{"slow", QueryEvent{SQL: "SELECT 1", ElapsedUS: 900000, Slow: true}, "warn"},
		{"failed", QueryEvent{SQL: "SELECT 1", Err: errors.New("boom"), Slow: true}, "error"},
	}
	ctx := logger.WithBatch(context.Background(), "b-1")
	for _, c := range cases {
		buf.Reset()
		tr.OnQuery(ctx, c.ev)

		var line logLine
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
			t.Fatalf("%s: unmarshal: %v raw=%s", c.name, err, buf.String())
		}
		if line.Level != c.level {
			t.Fatalf("%s: level = %q, want %q", c.name, line.Level, c.level)
		}
		if line.Component != "pg" || line.Message != "pg query" || line.BatchID != "b-1" {
			t.Fatalf("%s: fields mismatch %+v", c.name, line)
		}
		if line.ElapsedMS != float64(c.ev.ElapsedUS)/1000.0 {
			t.Fatalf("%s: elapsed_ms = %v", c.name, line.ElapsedMS)
		}
	}

	buf.Reset()
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 1"})
	var line logLine
	_ = json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line)
	if line.BatchID != "" {
		t.Fatalf("batch_id should be absent without batch ctx")
	}
}
