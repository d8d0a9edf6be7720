// Package domain holds the types and ports of the result ingestion pipeline
package domain

import (
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/core/results"
)

// Notification is one completed analysis object to ingest
type Notification struct {
	Bucket string `json:"bucket" validate:"required,bucket"    example:"comprehend-output"`
	Key    string `json:"key"    validate:"required,objectkey" example:"keyPhrases/job-123/output/output.tar.gz"`
}

// OutcomeStatus summarizes how a notification ended
type OutcomeStatus string

// Outcome statuses
const (
	StatusOK      OutcomeStatus = "ok"
	StatusSkipped OutcomeStatus = "skipped"
	StatusFailed  OutcomeStatus = "failed"
)

// ReportStatus is the batch marker; failures are counted, never raised
const ReportStatus = "Ok"

// Outcome is the per notification result
type Outcome struct {
	Bucket       string        `json:"bucket"`
	Key          string        `json:"key"`
	Kind         results.Kind  `json:"kind,omitempty"`
	JobID        string        `json:"job_id,omitempty"`
	Status       OutcomeStatus `json:"status"`
	Rows         int           `json:"rows"`
	CSVKey       string        `json:"csv_key,omitempty"`
	CSVWritten   bool          `json:"csv_written"`
	TableUpdated bool          `json:"table_updated"`
	Err          string        `json:"error,omitempty"`
	ErrCode      string        `json:"error_code,omitempty"`
	Retryable    bool          `json:"retryable,omitempty"`
	ElapsedMS    int           `json:"elapsed_ms"`
}

// Report is the batch result
type Report struct {
	BatchID    string    `json:"batch_id"`
	Status     string    `json:"status"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Add appends o and updates the counters
func (r *Report) Add(o Outcome) {
	r.Total++
	switch o.Status {
	case StatusOK:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// HasFailures reports whether any notification failed
func (r Report) HasFailures() bool { return r.Failed > 0 }

// LedgerRow is one persisted outcome in the ingest ledger
type LedgerRow struct {
	BatchID string
	At      time.Time
	Outcome Outcome
}
