package driving

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// IndexingService writes documents to the index with merge-or-insert semantics.
type IndexingService interface {
	// Upsert writes one batch. Against a vector-bearing schema, documents
	// carrying content are embedded in the same call.
	Upsert(ctx context.Context, docs []domain.RawDocument) (*domain.IndexWriteResult, error)

	// UpsertWithEmbeddings writes one batch with a fresh embedding for every
	// document carrying content.
	UpsertWithEmbeddings(ctx context.Context, docs []domain.RawDocument) (*domain.IndexWriteResult, error)
}

// IngestService splits a document stream into batches and indexes them.
type IngestService interface {
	// Ingest indexes docs batch by batch and reports what happened.
	Ingest(ctx context.Context, docs []domain.RawDocument, opts IngestOptions) (*IngestReport, error)
}

// IngestOptions configures a batch ingest.
type IngestOptions struct {
	// BatchSize is the number of documents per write (default 10).
	BatchSize int

	// Attempts is how many times a failed batch is submitted (default 1).
	Attempts int

	// WithEmbeddings requests the embedding-enriched upsert.
	WithEmbeddings bool

	// SkipUnchanged skips documents whose ledger fingerprint matches.
	SkipUnchanged bool

	// ContinueOnError keeps going after a batch exhausts its attempts.
	ContinueOnError bool
}

// IngestReport summarises an ingest run.
type IngestReport struct {
	Submitted int
	Written   int
	Skipped   int
	Failed    int
	Batches   int

	// Errors holds one entry per batch that exhausted its attempts.
	Errors []error
}
