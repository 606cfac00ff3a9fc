package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure Ingester implements the interface.
var _ driving.IngestService = (*Ingester)(nil)

// Ingest defaults.
const (
	DefaultBatchSize = 10
	DefaultAttempts  = 1
)

var ingestLog = logger.For("ingest")

// Ingester feeds a document stream to the indexing service in batches and
// records each written key in the ledger.
type Ingester struct {
	indexing driving.IndexingService
	ledger   driven.KeyLedger
	now      func() time.Time
}

// NewIngester creates an ingester. The ledger is optional (can be nil);
// without it SkipUnchanged has no effect and keys are not recorded.
func NewIngester(indexing driving.IndexingService, ledger driven.KeyLedger) *Ingester {
	return &Ingester{
		indexing: indexing,
		ledger:   ledger,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for default timestamps.
func (i *Ingester) SetClock(now func() time.Time) {
	i.now = now
}

// pendingDoc is a document queued for writing with its derived key.
type pendingDoc struct {
	doc         domain.RawDocument
	key         string
	original    string
	fingerprint string
}

// Ingest validates every document, drops unchanged ones when asked, and
// writes the rest in batches. A batch is resubmitted up to opts.Attempts
// times; resubmission is safe because writes merge by key.
func (i *Ingester) Ingest(
	ctx context.Context, docs []domain.RawDocument, opts driving.IngestOptions,
) (*driving.IngestReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	report := &driving.IngestReport{Submitted: len(docs)}
	defer ingestLog.Timed(fmt.Sprintf("ingest of %d document(s)", len(docs)))()

	pending, err := i.prepare(ctx, docs, opts, report)
	if err != nil {
		return report, err
	}

	for start := 0; start < len(pending); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := min(start+opts.BatchSize, len(pending))
		batch := pending[start:end]
		report.Batches++

		result, err := i.writeBatch(ctx, batch, opts)
		if err != nil {
			report.Failed += len(batch)
			batchErr := fmt.Errorf("batch %d (%d document(s)): %w", report.Batches, len(batch), err)
			report.Errors = append(report.Errors, batchErr)
			if !opts.ContinueOnError {
				return report, batchErr
			}
			ingestLog.Warn("%v", batchErr)
			continue
		}
		report.Written += len(batch)

		if err := i.record(ctx, batch, result); err != nil {
			return report, fmt.Errorf("record ledger: %w", err)
		}
	}

	ingestLog.Info("submitted %d, written %d, skipped %d, failed %d",
		report.Submitted, report.Written, report.Skipped, report.Failed)
	return report, nil
}

func (i *Ingester) prepare(
	ctx context.Context, docs []domain.RawDocument, opts driving.IngestOptions, report *driving.IngestReport,
) ([]pendingDoc, error) {
	pending := make([]pendingDoc, 0, len(docs))
	for n, doc := range docs {
		original, err := doc.Identifier()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", n, err)
		}
		key, err := domain.MakeSafeKey(original)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", n, err)
		}
		// Fingerprint before defaults so reruns of the same input match.
		p := pendingDoc{doc: doc, key: key, original: original, fingerprint: Fingerprint(doc)}

		if opts.SkipUnchanged && i.ledger != nil {
			unchanged, err := i.unchanged(ctx, p, opts.WithEmbeddings)
			if err != nil {
				return nil, err
			}
			if unchanged {
				report.Skipped++
				continue
			}
		}

		if p.doc.LastModified == "" {
			p.doc.LastModified = i.now().UTC().Format(time.RFC3339)
		}
		pending = append(pending, p)
	}
	return pending, nil
}

func (i *Ingester) unchanged(ctx context.Context, p pendingDoc, withEmbeddings bool) (bool, error) {
	entry, err := i.ledger.Get(ctx, p.key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read ledger: %w", err)
	}
	if entry.Fingerprint != p.fingerprint {
		return false, nil
	}
	// A document first written without a vector needs one now, unless it
	// has no text to embed.
	return entry.Vectorised || !withEmbeddings || p.doc.Content == "", nil
}

func (i *Ingester) writeBatch(
	ctx context.Context, batch []pendingDoc, opts driving.IngestOptions,
) (*domain.IndexWriteResult, error) {
	docs := make([]domain.RawDocument, len(batch))
	for n, p := range batch {
		docs[n] = p.doc
	}

	var (
		result *domain.IndexWriteResult
		err    error
	)
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if opts.WithEmbeddings {
			result, err = i.indexing.UpsertWithEmbeddings(ctx, docs)
		} else {
			result, err = i.indexing.Upsert(ctx, docs)
		}
		if err == nil || !retryable(ctx, err) {
			return result, err
		}
		if attempt < opts.Attempts {
			ingestLog.Warn("attempt %d/%d failed, resubmitting: %v", attempt, opts.Attempts, err)
		}
	}
	return result, err
}

// retryable reports whether resubmitting the same batch could succeed.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var cfgErr *domain.ConfigError
	var dimErr *domain.DimensionMismatchError
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &dimErr):
		return false
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrVectorFieldUnsupported),
		errors.Is(err, domain.ErrStaleVector),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrIndexNotFound):
		return false
	}
	return true
}

// record stores each written key. Vectorised follows what the write
// reported, so a plain upsert that re-embedded content counts too.
func (i *Ingester) record(ctx context.Context, batch []pendingDoc, result *domain.IndexWriteResult) error {
	if i.ledger == nil {
		return nil
	}
	indexedAt := i.now().UTC()
	entries := make([]domain.LedgerEntry, len(batch))
	for n, p := range batch {
		entries[n] = domain.LedgerEntry{
			SafeID:      p.key,
			OriginalID:  p.original,
			Name:        p.doc.Name,
			Source:      p.doc.Source,
			Path:        p.doc.Path,
			Fingerprint: p.fingerprint,
			Vectorised:  result.HasVector(p.key),
			IndexedAt:   indexedAt,
		}
	}
	return i.ledger.Record(ctx, entries)
}
