package domain

import (
	"context"

	"github.com/ferroh-aws/transcribe-comprehend/internal/adapters/ingest/archive"
)

// HandlerPort is the public port of the pipeline; triggers call it with one batch
type HandlerPort interface {
	Handle(ctx context.Context, batch []Notification) Report
}

// ArchivePort opens the document inside an analysis output archive
type ArchivePort interface {
	Fetch(ctx context.Context, bucket, key string) (*archive.Document, error)
}

// ObjectWriter stores rendered artifacts
type ObjectWriter interface {
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// StatusRepo replaces one attribute of a status row
type StatusRepo interface {
	// UpdateAttribute overwrites attribute on the row keyed by jobID with values
	// no row is a NotFound error
	UpdateAttribute(ctx context.Context, jobID, attribute string, values any) error
}

// LedgerRepo records outcomes for later inspection
type LedgerRepo interface {
	Record(ctx context.Context, rows []LedgerRow) error
}
