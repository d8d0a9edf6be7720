package module

import (
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/adapters/ingest/archive"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/guardrails"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/repo"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/service"
)

// Options holds configuration for result ingestion
type Options struct {
	StatusTable  string
	LedgerTable  string
	OutputBucket string
	OutputPrefix string

	TmpDir           string
	MaxArchiveBytes  int64
	MaxExpandedBytes int64

	Timeouts guardrails.Timeouts

	// Strict answers 502 on any failed notification
	Strict bool

	// WebhookToken, when set, is the bearer token webhook callers must present
	WebhookToken string
}

// FromConfig reads the results options from config with CORE_RESULTS_ prefix
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("CORE_RESULTS_")
	return Options{
		StatusTable:      rc.MayIdentifier("STATUS_TABLE", repo.DefaultStatusTable),
		LedgerTable:      rc.MayIdentifier("LEDGER_TABLE", repo.DefaultLedgerTable),
		OutputBucket:     rc.MayString("OUTPUT_BUCKET", ""),
		OutputPrefix:     rc.MayString("OUTPUT_PREFIX", service.DefaultOutputPrefix),
		TmpDir:           rc.MayString("TMP_DIR", ""),
		MaxArchiveBytes:  int64(rc.MayInt("MAX_ARCHIVE_BYTES", archive.DefaultMaxBytes)),
		MaxExpandedBytes: int64(rc.MayInt("MAX_EXPANDED_BYTES", archive.DefaultMaxExpandedBytes)),
		Timeouts: guardrails.Timeouts{
			Item:  rc.MayDuration("ITEM_TIMEOUT", 5*time.Minute),
			Fetch: rc.MayDuration("FETCH_TIMEOUT", 2*time.Minute),
			Write: rc.MayDuration("WRITE_TIMEOUT", 30*time.Second),
		},
		Strict:       rc.MayBool("STRICT", false),
		WebhookToken: rc.MayString("WEBHOOK_TOKEN", ""),
	}
}
