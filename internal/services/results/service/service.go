// Package service runs result ingestion: classify, fetch, decode, write the CSV artifact
// and replace the status table attribute, one notification at a time
package service

import (
	"context"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/core/results"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/repokit"
	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/guardrails"

	"github.com/google/uuid"
)

// DefaultOutputPrefix is the key prefix CSV artifacts are written under
const DefaultOutputPrefix = "analytics"

// Config holds the service options
type Config struct {
	// OutputBucket receives the CSV artifacts; empty writes next to the source object
	OutputBucket string

	// OutputPrefix is the first key segment of every artifact; empty means DefaultOutputPrefix
	OutputPrefix string

	Timeouts guardrails.Timeouts
}

// Service implements domain.HandlerPort
type Service struct {
	DB      repokit.TxRunner // nil disables status updates, which then fail
	Status  repokit.Binder[domain.StatusRepo]
	Archive domain.ArchivePort
	Writer  domain.ObjectWriter
	Ledger  domain.LedgerRepo // optional
	Cfg     Config
}

var _ domain.HandlerPort = (*Service)(nil)

// seams for tests
var (
	now        = time.Now
	newBatchID = uuid.NewString
)

// New constructs the service
func New(
	db repokit.TxRunner,
	status repokit.Binder[domain.StatusRepo],
	archive domain.ArchivePort,
	writer domain.ObjectWriter,
	ledger domain.LedgerRepo, // optional
	cfg Config,
) *Service {
	if status == nil {
		panic("results.Service requires a non nil status binder")
	}
	if archive == nil {
		panic("results.Service requires a non nil archive port")
	}
	if writer == nil {
		panic("results.Service requires a non nil object writer")
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = DefaultOutputPrefix
	}
	return &Service{DB: db, Status: status, Archive: archive, Writer: writer, Ledger: ledger, Cfg: cfg}
}

// Handle processes every notification in order; a failure is recorded and never stops the batch
func (s *Service) Handle(ctx context.Context, batch []domain.Notification) domain.Report {
	id := newBatchID()
	ctx = logger.WithBatch(ctx, id)

	rep := domain.Report{
		BatchID:   id,
		Status:    domain.ReportStatus,
		StartedAt: now().UTC(),
		Outcomes:  make([]domain.Outcome, 0, len(batch)),
	}
	for _, n := range batch {
		rep.Add(s.handleOne(ctx, n))
	}
	rep.FinishedAt = now().UTC()

	s.record(ctx, rep)

	logger.C(ctx).Info().
		Int("total", rep.Total).
		Int("succeeded", rep.Succeeded).
		Int("skipped", rep.Skipped).
		Int("failed", rep.Failed).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("results: batch done")
	return rep
}

func (s *Service) handleOne(ctx context.Context, n domain.Notification) (out domain.Outcome) {
	start := now()
	out = domain.Outcome{Bucket: n.Bucket, Key: n.Key}
	defer func() { out.ElapsedMS = int(now().Sub(start).Milliseconds()) }()
	defer func() {
		if r := recover(); r != nil {
			fail(ctx, &out, perr.PanicErrf("results: panic handling %s: %v", n.Key, r), false)
		}
	}()

	if n.Bucket == "" || n.Key == "" {
		fail(ctx, &out, perr.InvalidArgf("results: notification needs bucket and key"), false)
		return out
	}

	d, ok := results.Classify(n.Key)
	if !ok {
		out.Status = domain.StatusSkipped
		logger.C(ctx).Info().Str("bucket", n.Bucket).Str("key", n.Key).Msg("results: unrecognized key prefix, skipping")
		return out
	}
	out.Kind = d.Kind

	if err := ctx.Err(); err != nil {
		fail(ctx, &out, perr.Wrap(err, perr.ErrorCodeUnavailable, "results: batch cancelled"), true)
		return out
	}

	ictx, cancel := guardrails.ForItem(ctx, s.Cfg.Timeouts)
	defer cancel()

	rec, err := s.decode(ictx, d, n)
	if err != nil {
		fail(ctx, &out, err, perr.Retryable(err))
		return out
	}
	out.JobID = rec.JobID
	out.Rows = rec.Rows()

	log := logger.C(ctx).With().Str("kind", string(d.Kind)).Str("job_id", rec.JobID).Logger()
	if d.JobID == results.JobIDFromFile {
		if _, err := uuid.Parse(rec.JobID); err != nil {
			log.Warn().Str("key", n.Key).Msg("results: job id is not a UUID")
		}
	}
	if out.Rows == 0 {
		log.Info().Str("key", n.Key).Msg("results: no results found")
	}

	body, err := rec.CSV()
	if err != nil {
		fail(ctx, &out, err, false)
		return out
	}

	bucket := s.Cfg.OutputBucket
	if bucket == "" {
		bucket = n.Bucket
	}
	out.CSVKey = rec.ObjectKey(s.Cfg.OutputPrefix)
	if err := s.put(ictx, bucket, out.CSVKey, body); err != nil {
		werr, retry := asStorageWrite(err, "results: write %s/%s", bucket, out.CSVKey)
		fail(ctx, &out, werr, retry)
		return out
	}
	out.CSVWritten = true

	if attr, vals, ok := rec.Attribute(); ok {
		if err := s.updateStatus(ictx, rec.JobID, attr, vals); err != nil {
			werr, retry := asStorageWrite(err, "results: update %s of %s", attr, rec.JobID)
			fail(ctx, &out, werr, retry)
			return out
		}
		out.TableUpdated = true
	}

	out.Status = domain.StatusOK
	log.Info().
		Int("rows", out.Rows).
		Str("csv", bucket+"/"+out.CSVKey).
		Bool("table_updated", out.TableUpdated).
		Msg("results: ingested")
	return out
}

// decode fetches the archive and decodes its document under the fetch budget
func (s *Service) decode(ctx context.Context, d results.Descriptor, n domain.Notification) (results.Record, error) {
	fctx, cancel := guardrails.ForFetch(ctx, s.Cfg.Timeouts)
	defer cancel()

	doc, err := s.Archive.Fetch(fctx, n.Bucket, n.Key)
	if err != nil {
		return results.Record{}, err
	}
	defer func() { _ = doc.Close() }()

	return results.Decode(doc, d, n.Key)
}

func (s *Service) put(ctx context.Context, bucket, key string, body []byte) error {
	wctx, cancel := guardrails.ForWrite(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Writer.Put(wctx, bucket, key, body, results.ContentType)
}

func (s *Service) updateStatus(ctx context.Context, jobID, attr string, vals any) error {
	if s.DB == nil {
		return perr.Unavailablef("results: status table is not configured")
	}
	wctx, cancel := guardrails.ForWrite(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.DB.Tx(wctx, func(q repokit.Queryer) error {
		return s.Status.Bind(q).UpdateAttribute(wctx, jobID, attr, vals)
	})
}

// record writes outcomes to the ledger; failures are logged and swallowed
func (s *Service) record(ctx context.Context, rep domain.Report) {
	if s.Ledger == nil || len(rep.Outcomes) == 0 {
		return
	}
	rows := make([]domain.LedgerRow, 0, len(rep.Outcomes))
	for _, o := range rep.Outcomes {
		rows = append(rows, domain.LedgerRow{BatchID: rep.BatchID, At: rep.FinishedAt, Outcome: o})
	}
	wctx, cancel := guardrails.ForWrite(context.WithoutCancel(ctx), s.Cfg.Timeouts)
	defer cancel()
	if err := s.Ledger.Record(wctx, rows); err != nil {
		logger.C(ctx).Warn().Err(err).Int("rows", len(rows)).Msg("results: ledger write failed")
	}
}

// asStorageWrite rewraps err as StorageWrite keeping the retry verdict of the cause
func asStorageWrite(err error, format string, a ...any) (error, bool) {
	retry := perr.Retryable(err)
	if perr.IsCode(err, perr.ErrorCodeStorageWrite) {
		return err, retry
	}
	return perr.Wrapf(err, perr.ErrorCodeStorageWrite, format, a...), retry
}

func fail(ctx context.Context, out *domain.Outcome, err error, retry bool) {
	out.Status = domain.StatusFailed
	out.Err = err.Error()
	out.ErrCode = perr.CodeOf(err).String()
	out.Retryable = retry

	logger.C(ctx).Warn().
		Err(err).
		Str("bucket", out.Bucket).
		Str("key", out.Key).
		Str("kind", string(out.Kind)).
		Str("code", out.ErrCode).
		Bool("retryable", retry).
		Msg("results: notification failed")
}
