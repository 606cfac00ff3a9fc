package mcp

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// mockSimilarityService is a mock implementation of driving.SimilarityService.
type mockSimilarityService struct {
	hits []domain.QueryHit
	docs []domain.ContextDoc
	mode domain.SearchMode
	err  error

	gotText   string
	gotK      int
	gotVector bool
}

func (m *mockSimilarityService) Search(
	_ context.Context, text string, k int, preferVector bool,
) ([]domain.QueryHit, domain.SearchMode, error) {
	m.gotText, m.gotK, m.gotVector = text, k, preferVector
	return m.hits, m.mode, m.err
}

func (m *mockSimilarityService) Contexts(
	_ context.Context, text string, k int, preferVector bool,
) ([]domain.ContextDoc, domain.SearchMode, error) {
	m.gotText, m.gotK, m.gotVector = text, k, preferVector
	return m.docs, m.mode, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	records map[string]domain.Record
	recent  []domain.RecentDocument
	count   int64
	err     error
}

func (m *mockQueryService) VectorSearch(_ context.Context, _ string, _ int) (*domain.SearchEnvelope, error) {
	return &domain.SearchEnvelope{}, m.err
}

func (m *mockQueryService) TextSearch(_ context.Context, _ string, _ int, _ []string) ([]domain.QueryHit, error) {
	return nil, m.err
}

func (m *mockQueryService) GetDocumentByID(_ context.Context, id string) (domain.Record, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	r, ok := m.records[id]
	return r, ok, nil
}

func (m *mockQueryService) RecentDocuments(_ context.Context, _ int) ([]domain.RecentDocument, error) {
	return m.recent, m.err
}

func (m *mockQueryService) StaleDocuments(_ context.Context, _ int) ([]domain.StaleDocument, error) {
	return nil, m.err
}

func (m *mockQueryService) DocumentCount(_ context.Context) (int64, error) {
	return m.count, m.err
}

func (m *mockQueryService) TimeSeriesCounts(_ context.Context, _ int) ([]domain.DayCount, error) {
	return nil, m.err
}

// mockKeyService is a mock implementation of driving.KeyService.
type mockKeyService struct{}

func (m *mockKeyService) SafeKey(raw string) (string, error) {
	return domain.MakeSafeKey(raw)
}

func (m *mockKeyService) Lookup(_ context.Context, _ string) (*domain.LedgerEntry, error) {
	return nil, domain.ErrNotFound
}

func (m *mockKeyService) LookupOriginal(_ context.Context, _ string) (*domain.LedgerEntry, error) {
	return nil, domain.ErrNotFound
}
