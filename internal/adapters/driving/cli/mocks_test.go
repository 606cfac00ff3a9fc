package cli

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings *domain.Settings
	getErr   error
	setErr   error
	set      map[string]string
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.settings, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"search.endpoint", "search.index", "search.api_key", "embedding.api_key"}
}

func (m *mockSettingsService) IsSecret(key string) bool {
	return key == "search.api_key" || key == "embedding.api_key"
}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	err   error
	calls int
}

func (m *mockValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	m.calls++
	return m.err
}

// mockKeyService implements driving.KeyService for testing.
type mockKeyService struct {
	entries map[string]*domain.LedgerEntry
}

func (m *mockKeyService) SafeKey(raw string) (string, error) {
	return domain.MakeSafeKey(raw)
}

func (m *mockKeyService) Lookup(_ context.Context, safeID string) (*domain.LedgerEntry, error) {
	if e, ok := m.entries[safeID]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockKeyService) LookupOriginal(_ context.Context, originalID string) (*domain.LedgerEntry, error) {
	for _, e := range m.entries {
		if e.OriginalID == originalID {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockSchemaService implements driving.SchemaService for testing.
type mockSchemaService struct {
	state   domain.ReadyState
	err     error
	fields  domain.FieldSet
	created []bool
}

func (m *mockSchemaService) EnsureReady(_ context.Context, createIfMissing bool) (domain.ReadyState, error) {
	m.created = append(m.created, createIfMissing)
	if m.err != nil {
		return "", m.err
	}
	return m.state, nil
}

func (m *mockSchemaService) SchemaFields(_ context.Context) (domain.FieldSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.fields, nil
}

func (m *mockSchemaService) Descriptor(_ context.Context) (domain.SchemaDescriptor, error) {
	return domain.SchemaDescriptor{
		IndexName:  "docs",
		APIVersion: "2024-07-01",
		Style:      domain.AddressingFunctionCall,
	}, m.err
}

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	records    map[string]domain.Record
	count      int64
	recent     []domain.RecentDocument
	stale      []domain.StaleDocument
	days       []domain.DayCount
	err        error
	lastTop    int
	lastDays   int
	fetchedIDs []string
}

func (m *mockQueryService) VectorSearch(_ context.Context, _ string, _ int) (*domain.SearchEnvelope, error) {
	return &domain.SearchEnvelope{}, m.err
}

func (m *mockQueryService) TextSearch(_ context.Context, _ string, _ int, _ []string) ([]domain.QueryHit, error) {
	return nil, m.err
}

func (m *mockQueryService) GetDocumentByID(_ context.Context, id string) (domain.Record, bool, error) {
	m.fetchedIDs = append(m.fetchedIDs, id)
	if m.err != nil {
		return nil, false, m.err
	}
	r, ok := m.records[id]
	return r, ok, nil
}

func (m *mockQueryService) RecentDocuments(_ context.Context, top int) ([]domain.RecentDocument, error) {
	m.lastTop = top
	return m.recent, m.err
}

func (m *mockQueryService) StaleDocuments(_ context.Context, top int) ([]domain.StaleDocument, error) {
	m.lastTop = top
	return m.stale, m.err
}

func (m *mockQueryService) DocumentCount(_ context.Context) (int64, error) {
	return m.count, m.err
}

func (m *mockQueryService) TimeSeriesCounts(_ context.Context, days int) ([]domain.DayCount, error) {
	m.lastDays = days
	return m.days, m.err
}

// mockSimilarityService implements driving.SimilarityService for testing.
type mockSimilarityService struct {
	hits         []domain.QueryHit
	docs         []domain.ContextDoc
	mode         domain.SearchMode
	err          error
	lastText     string
	lastK        int
	preferVector bool
}

func (m *mockSimilarityService) Search(
	_ context.Context, text string, k int, preferVector bool,
) ([]domain.QueryHit, domain.SearchMode, error) {
	m.lastText, m.lastK, m.preferVector = text, k, preferVector
	return m.hits, m.mode, m.err
}

func (m *mockSimilarityService) Contexts(
	_ context.Context, text string, k int, preferVector bool,
) ([]domain.ContextDoc, domain.SearchMode, error) {
	m.lastText, m.lastK, m.preferVector = text, k, preferVector
	return m.docs, m.mode, m.err
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	docs   []domain.RawDocument
	opts   driving.IngestOptions
	report *driving.IngestReport
	err    error
}

func (m *mockIngestService) Ingest(
	_ context.Context, docs []domain.RawDocument, opts driving.IngestOptions,
) (*driving.IngestReport, error) {
	m.docs, m.opts = docs, opts
	if m.report == nil {
		return &driving.IngestReport{Submitted: len(docs), Written: len(docs), Batches: 1}, m.err
	}
	return m.report, m.err
}
