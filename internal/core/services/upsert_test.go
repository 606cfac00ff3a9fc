package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
)

func newTextPipeline(idx *fakeIndex) *UpsertPipeline {
	return NewUpsertPipeline(mustNegotiator(idx, domain.VectorConfig{}), idx, nil)
}

func newVectorPipeline(t *testing.T, idx *fakeIndex, m *mockEmbedder) *UpsertPipeline {
	t.Helper()
	var gateway *EmbeddingGateway
	if m != nil {
		g, err := NewEmbeddingGateway(m, 4, 0)
		require.NoError(t, err)
		gateway = g
	}
	return NewUpsertPipeline(mustNegotiator(idx, domain.VectorConfig{Enabled: true, Dimensions: 4}), idx, gateway)
}

// storedVector reads a vector back from the fake index at float32 precision.
func storedVector(doc map[string]any) []float32 {
	raw := floats(doc[domain.FieldContentVector])
	out := make([]float32, len(raw))
	for i, f := range raw {
		out[i] = float32(f)
	}
	return out
}

func TestUpsert_EmptyBatch(t *testing.T) {
	idx := newFakeIndex("docs")
	p := newTextPipeline(idx)

	result, err := p.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Value)
	assert.Empty(t, idx.calls)
}

func TestUpsert_UsesSafeKeysAndKeepsOriginal(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	p := newTextPipeline(idx)

	result, err := p.Upsert(context.Background(), []domain.RawDocument{
		{ID: "a/b", Name: "first", Content: "one"},
		{ID: "a-b", Name: "second", Content: "two"},
	})
	require.NoError(t, err)
	require.Len(t, result.Value, 2)
	assert.Empty(t, result.Failed())

	slash, ok := idx.doc("YS9i")
	require.True(t, ok)
	assert.Equal(t, "a/b", slash[domain.FieldOriginalID])
	assert.Equal(t, "one", slash[domain.FieldContent])

	dash, ok := idx.doc("a-b")
	require.True(t, ok)
	assert.Equal(t, "a-b", dash[domain.FieldOriginalID])
	assert.Equal(t, "two", dash[domain.FieldContent])

	call := idx.lastCall()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/indexes('docs')/docs/index", call.Path)
	assert.Equal(t, "2024-07-01", call.APIVersion)
}

func TestUpsert_NameIsIdentifierFallback(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	p := newTextPipeline(idx)

	_, err := p.Upsert(context.Background(), []domain.RawDocument{{Name: "report.pdf", Content: "x"}})
	require.NoError(t, err)

	key, err := domain.MakeSafeKey("report.pdf")
	require.NoError(t, err)
	doc, ok := idx.doc(key)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", doc[domain.FieldOriginalID])
}

func TestUpsert_ExplicitOriginalIDWins(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	p := newTextPipeline(idx)

	_, err := p.Upsert(context.Background(), []domain.RawDocument{
		{ID: "item-1", OriginalID: "drive/items/1", Content: "x"},
	})
	require.NoError(t, err)

	doc, ok := idx.doc("item-1")
	require.True(t, ok)
	assert.Equal(t, "drive/items/1", doc[domain.FieldOriginalID])
}

func TestUpsert_DropsUndeclaredFields(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(append(textFields(), "tags")...)
	p := newTextPipeline(idx)

	_, err := p.Upsert(context.Background(), []domain.RawDocument{{
		ID:      "doc1",
		Content: "x",
		Extra:   map[string]any{"tags": []string{"a"}, "owner": "someone"},
	}})
	require.NoError(t, err)

	doc, ok := idx.doc("doc1")
	require.True(t, ok)
	assert.Contains(t, doc, "tags")
	assert.NotContains(t, doc, "owner")
}

func TestUpsert_MetadataOnlyMergeKeepsContent(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	p := newTextPipeline(idx)
	ctx := context.Background()

	_, err := p.Upsert(ctx, []domain.RawDocument{{ID: "doc1", Name: "old", Content: "body"}})
	require.NoError(t, err)
	_, err = p.Upsert(ctx, []domain.RawDocument{{ID: "doc1", Name: "new", Views: intPtr(3)}})
	require.NoError(t, err)

	doc, ok := idx.doc("doc1")
	require.True(t, ok)
	assert.Equal(t, "new", doc[domain.FieldName])
	assert.Equal(t, "body", doc[domain.FieldContent])
	assert.EqualValues(t, 3, doc[domain.FieldViews])
}

func TestUpsert_Idempotent(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	p := newTextPipeline(idx)
	docs := []domain.RawDocument{{ID: "doc1", Content: "body"}}

	_, err := p.Upsert(context.Background(), docs)
	require.NoError(t, err)
	_, err = p.Upsert(context.Background(), docs)
	require.NoError(t, err)
	assert.Len(t, idx.docs, 1)
}

func TestUpsert_RejectsDocumentWithoutIdentifier(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	p := newTextPipeline(idx)

	_, err := p.Upsert(context.Background(), []domain.RawDocument{{ID: "ok"}, {Content: "orphan"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "document 1")
	assert.Zero(t, idx.writeCalls)
}

func TestUpsertWithEmbeddings_StoresVector(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	m := newMockEmbedder(4)
	p := newVectorPipeline(t, idx, m)

	_, err := p.UpsertWithEmbeddings(context.Background(), []domain.RawDocument{
		{ID: "foo", Content: "bar"},
		{ID: "meta", Name: "no content"},
	})
	require.NoError(t, err)

	doc, ok := idx.doc("foo")
	require.True(t, ok)
	assert.Equal(t, m.vectorFor("bar"), storedVector(doc))

	meta, ok := idx.doc("meta")
	require.True(t, ok)
	assert.NotContains(t, meta, domain.FieldContentVector)

	require.Equal(t, 1, m.callCount())
	assert.Equal(t, []string{"bar"}, m.calls[0])
}

func TestUpsertWithEmbeddings_NoVectorField(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	m := newMockEmbedder(4)
	g, err := NewEmbeddingGateway(m, 4, 0)
	require.NoError(t, err)
	p := NewUpsertPipeline(mustNegotiator(idx, domain.VectorConfig{}), idx, g)

	_, err = p.UpsertWithEmbeddings(context.Background(), []domain.RawDocument{{ID: "foo", Content: "bar"}})
	assert.ErrorIs(t, err, domain.ErrVectorFieldUnsupported)
	assert.Zero(t, m.callCount(), "validation happens before any embedding call")
	assert.Zero(t, idx.writeCalls)
}

func TestUpsertWithEmbeddings_NoGateway(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	p := newVectorPipeline(t, idx, nil)

	_, err := p.UpsertWithEmbeddings(context.Background(), []domain.RawDocument{{ID: "foo", Content: "bar"}})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Zero(t, idx.writeCalls)
}

func TestUpsert_VectorSchemaReembedsContent(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	m := newMockEmbedder(4)
	p := newVectorPipeline(t, idx, m)
	ctx := context.Background()

	_, err := p.UpsertWithEmbeddings(ctx, []domain.RawDocument{{ID: "foo", Content: "old text"}})
	require.NoError(t, err)
	_, err = p.Upsert(ctx, []domain.RawDocument{{ID: "foo", Content: "new text"}})
	require.NoError(t, err)

	doc, ok := idx.doc("foo")
	require.True(t, ok)
	assert.Equal(t, "new text", doc[domain.FieldContent])
	assert.Equal(t, m.vectorFor("new text"), storedVector(doc))
}

func TestUpsert_VectorSchemaWithoutGateway(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	p := newVectorPipeline(t, idx, nil)
	ctx := context.Background()

	_, err := p.Upsert(ctx, []domain.RawDocument{{ID: "foo", Content: "changed"}})
	assert.ErrorIs(t, err, domain.ErrStaleVector)
	assert.Zero(t, idx.writeCalls)

	// Metadata-only writes leave the stored vector valid.
	_, err = p.Upsert(ctx, []domain.RawDocument{{ID: "foo", Name: "renamed"}})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.writeCalls)
}

func TestUpsert_CallerVectorIsNeverWritten(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	p := newVectorPipeline(t, idx, nil)

	_, err := p.Upsert(context.Background(), []domain.RawDocument{{
		ID:    "foo",
		Name:  "meta",
		Extra: map[string]any{domain.FieldContentVector: []float32{1, 2, 3, 4}},
	}})
	require.NoError(t, err)

	doc, ok := idx.doc("foo")
	require.True(t, ok)
	assert.NotContains(t, doc, domain.FieldContentVector)
}

func TestUpsert_ExtraContentCannotBypassReembedding(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	m := newMockEmbedder(4)
	p := newVectorPipeline(t, idx, m)
	ctx := context.Background()

	_, err := p.UpsertWithEmbeddings(ctx, []domain.RawDocument{{ID: "foo", Content: "foo"}})
	require.NoError(t, err)
	res, err := p.Upsert(ctx, []domain.RawDocument{{
		ID:    "foo",
		Extra: map[string]any{domain.FieldContent: "bar"},
	}})
	require.NoError(t, err)
	assert.Empty(t, res.Vectorised)

	doc, ok := idx.doc("foo")
	require.True(t, ok)
	assert.Equal(t, "foo", doc[domain.FieldContent])
	assert.Equal(t, m.vectorFor("foo"), storedVector(doc))
	assert.Equal(t, 1, m.callCount())
}

func TestUpsert_ReportsVectorisedKeys(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	p := newVectorPipeline(t, idx, newMockEmbedder(4))
	ctx := context.Background()

	res, err := p.Upsert(ctx, []domain.RawDocument{
		{ID: "foo", Content: "bar"},
		{ID: "meta", Name: "no content"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, res.Vectorised)
	assert.True(t, res.HasVector("foo"))
	assert.False(t, res.HasVector("meta"))

	text := newTextPipeline(newFakeIndex("docs").withSchema(textFields()...))
	res, err = text.Upsert(ctx, []domain.RawDocument{{ID: "foo", Content: "bar"}})
	require.NoError(t, err)
	assert.Empty(t, res.Vectorised)
}

func TestUpsert_DimensionMismatchNamesDocument(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(vectorFields()...)
	m := newMockEmbedder(4)
	m.short = 0
	p := newVectorPipeline(t, idx, m)

	_, err := p.UpsertWithEmbeddings(context.Background(), []domain.RawDocument{
		{ID: "meta", Name: "no content"},
		{ID: "foo", Content: "bar"},
	})
	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
	assert.Equal(t, 3, mismatch.Got)
	assert.Equal(t, 4, mismatch.Want)
	assert.Zero(t, idx.writeCalls)
}

func TestUpsert_PartialFailure(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	idx.intercept = func(req driven.IndexRequest) (*driven.IndexResponse, error) {
		if !strings.HasSuffix(req.Path, "/docs/index") {
			return nil, nil
		}
		return reply(http.StatusMultiStatus, map[string]any{"value": []any{
			map[string]any{"key": "ok", "status": true, "statusCode": 201},
			map[string]any{"key": "bad", "status": false, "statusCode": 400, "errorMessage": "field too long"},
		}}), nil
	}
	p := newTextPipeline(idx)

	result, err := p.Upsert(context.Background(), []domain.RawDocument{{ID: "ok"}, {ID: "bad"}})
	var batchErr *domain.BatchWriteError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, http.StatusMultiStatus, batchErr.StatusCode)
	require.Len(t, batchErr.Failed, 1)
	assert.Equal(t, "bad", batchErr.Failed[0].Key)
	assert.Contains(t, err.Error(), "field too long")

	require.NotNil(t, result)
	assert.Len(t, result.Value, 2)
}

func TestUpsert_ServiceError(t *testing.T) {
	idx := newFakeIndex("docs").withSchema(textFields()...)
	idx.intercept = func(req driven.IndexRequest) (*driven.IndexResponse, error) {
		if strings.HasSuffix(req.Path, "/docs/index") {
			return &driven.IndexResponse{StatusCode: http.StatusServiceUnavailable, Body: []byte("busy")}, nil
		}
		return nil, nil
	}
	p := newTextPipeline(idx)

	_, err := p.Upsert(context.Background(), []domain.RawDocument{{ID: "doc1"}})
	var httpErr *domain.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "busy", httpErr.Body)
}

func TestUpsert_CreatesIndexOnFirstWrite(t *testing.T) {
	idx := newFakeIndex("docs")
	m := newMockEmbedder(4)
	p := newVectorPipeline(t, idx, m)

	_, err := p.UpsertWithEmbeddings(context.Background(), []domain.RawDocument{{ID: "foo", Content: "bar"}})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.createCalls)

	doc, ok := idx.doc("foo")
	require.True(t, ok)
	assert.Len(t, storedVector(doc), 4)
}
