package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure UpsertPipeline implements the interface.
var _ driving.IndexingService = (*UpsertPipeline)(nil)

const actionMergeOrUpload = "mergeOrUpload"

var upsertLog = logger.For("upsert")

// UpsertPipeline writes document batches with merge-or-insert semantics.
// Every record is keyed by its safe key and trimmed to the fields the live
// schema declares.
type UpsertPipeline struct {
	schema    driving.SchemaService
	transport driven.IndexTransport
	gateway   *EmbeddingGateway
}

// NewUpsertPipeline creates a pipeline. The gateway is optional (can be nil);
// without it vector-bearing schemas only accept metadata-only writes.
func NewUpsertPipeline(
	schema driving.SchemaService,
	transport driven.IndexTransport,
	gateway *EmbeddingGateway,
) *UpsertPipeline {
	return &UpsertPipeline{
		schema:    schema,
		transport: transport,
		gateway:   gateway,
	}
}

// Upsert writes one batch. If the schema declares the vector field, documents
// carrying content are embedded in the same call so stored vectors never
// describe old content.
func (p *UpsertPipeline) Upsert(ctx context.Context, docs []domain.RawDocument) (*domain.IndexWriteResult, error) {
	return p.upsert(ctx, docs, false)
}

// UpsertWithEmbeddings writes one batch with a fresh embedding for every
// document carrying content. It fails with domain.ErrVectorFieldUnsupported
// before any embedding call when the schema has no vector field.
func (p *UpsertPipeline) UpsertWithEmbeddings(
	ctx context.Context, docs []domain.RawDocument,
) (*domain.IndexWriteResult, error) {
	return p.upsert(ctx, docs, true)
}

func (p *UpsertPipeline) upsert(
	ctx context.Context, docs []domain.RawDocument, enrich bool,
) (*domain.IndexWriteResult, error) {
	if len(docs) == 0 {
		return &domain.IndexWriteResult{Value: []domain.WriteStatus{}}, nil
	}
	defer upsertLog.Timed(fmt.Sprintf("batch of %d", len(docs)))()

	fields, err := p.schema.SchemaFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	desc, err := p.schema.Descriptor(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	records, err := buildRecords(docs, fields)
	if err != nil {
		return nil, err
	}

	vectorField := fields.Has(domain.FieldContentVector)
	if enrich && !vectorField {
		return nil, fmt.Errorf("%w: %s is not declared by index %s",
			domain.ErrVectorFieldUnsupported, domain.FieldContentVector, desc.IndexName)
	}
	if vectorField && (enrich || hasContent(records)) {
		if err := p.attachVectors(ctx, records, enrich); err != nil {
			return nil, err
		}
	}

	return p.write(ctx, desc, records)
}

// buildRecords derives safe keys and drops fields the schema does not declare.
func buildRecords(docs []domain.RawDocument, fields domain.FieldSet) ([]map[string]any, error) {
	records := make([]map[string]any, len(docs))
	for i, doc := range docs {
		original, err := doc.Identifier()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		key, err := domain.MakeSafeKey(original)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		record := make(map[string]any)
		for name, value := range doc.Fields() {
			if fields.Has(name) {
				record[name] = value
			}
		}
		// Vectors are only ever written next to the content they describe.
		delete(record, domain.FieldContentVector)

		record[domain.FieldID] = key
		if fields.Has(domain.FieldOriginalID) {
			if _, ok := record[domain.FieldOriginalID]; !ok {
				record[domain.FieldOriginalID] = original
			}
		}
		records[i] = record
	}
	return records, nil
}

// recordContent returns the text a record will store, which is the only
// text a vector may describe.
func recordContent(record map[string]any) string {
	s, _ := record[domain.FieldContent].(string)
	return s
}

func hasContent(records []map[string]any) bool {
	for _, r := range records {
		if recordContent(r) != "" {
			return true
		}
	}
	return false
}

func (p *UpsertPipeline) attachVectors(
	ctx context.Context, records []map[string]any, enrich bool,
) error {
	if p.gateway == nil {
		if enrich {
			return domain.ErrEmbeddingUnavailable
		}
		return fmt.Errorf("%w: index declares %s but no embedding service is configured",
			domain.ErrStaleVector, domain.FieldContentVector)
	}

	var texts []string
	var owners []int
	for i, r := range records {
		text := recordContent(r)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		owners = append(owners, i)
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := p.gateway.Embed(ctx, texts)
	if err != nil {
		var mismatch *domain.DimensionMismatchError
		if errors.As(err, &mismatch) {
			// Report the position in the caller's batch, not the embed call.
			return &domain.DimensionMismatchError{Index: owners[mismatch.Index], Got: mismatch.Got, Want: mismatch.Want}
		}
		return fmt.Errorf("embed batch: %w", err)
	}
	for j, i := range owners {
		records[i][domain.FieldContentVector] = vectors[j]
	}
	upsertLog.Debug("attached %d vector(s)", len(vectors))
	return nil
}

func (p *UpsertPipeline) write(
	ctx context.Context, desc domain.SchemaDescriptor, records []map[string]any,
) (*domain.IndexWriteResult, error) {
	actions := make([]map[string]any, len(records))
	for i, r := range records {
		action := make(map[string]any, len(r)+1)
		for k, v := range r {
			action[k] = v
		}
		action["@search.action"] = actionMergeOrUpload
		actions[i] = action
	}

	resp, err := p.transport.Do(ctx, driven.IndexRequest{
		Method:     http.MethodPost,
		Path:       desc.DocsPath() + "/index",
		APIVersion: desc.APIVersion,
		Body:       map[string]any{"value": actions},
	})
	if err != nil {
		return nil, &domain.AvailabilityError{Op: "upsert batch", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &domain.HTTPError{
			Op:         "upsert batch",
			StatusCode: resp.StatusCode,
			Body:       truncateRunes(string(resp.Body), 1024),
		}
	}

	var result domain.IndexWriteResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("decode upsert reply: %w", err)
	}
	for _, r := range records {
		if _, ok := r[domain.FieldContentVector]; ok {
			result.Vectorised = append(result.Vectorised, r[domain.FieldID].(string))
		}
	}
	if failed := result.Failed(); len(failed) > 0 {
		upsertLog.Warn("%d of %d document(s) rejected", len(failed), len(records))
		return &result, &domain.BatchWriteError{StatusCode: resp.StatusCode, Failed: failed}
	}
	upsertLog.Debug("wrote %d document(s) with status %d", len(result.Value), resp.StatusCode)
	return &result, nil
}
