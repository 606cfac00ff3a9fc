package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

func boolPtr(b bool) *bool { return &b }

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hits and mode", func(t *testing.T) {
		sim := &mockSimilarityService{
			hits: []domain.QueryHit{{ID: "doc-1", Name: "Q1 report", Score: 0.91}},
			mode: domain.SearchModeVector,
		}
		server, err := NewServer(&Ports{Similarity: sim})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "revenue", Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, "vector", output.Mode)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "Q1 report", output.Results[0].Name)
		assert.Equal(t, "revenue", sim.gotText)
		assert.Equal(t, 3, sim.gotK)
		assert.True(t, sim.gotVector)
	})

	t.Run("defaults and text preference", func(t *testing.T) {
		sim := &mockSimilarityService{mode: domain.SearchModeText}
		server, err := NewServer(&Ports{Similarity: sim})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "x", Vector: boolPtr(false)})
		require.NoError(t, err)
		assert.Equal(t, defaultLimit, sim.gotK)
		assert.False(t, sim.gotVector)
		assert.NotNil(t, output.Results)
		assert.Zero(t, output.Count)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Similarity: &mockSimilarityService{err: errors.New("search failed")}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleRetrieveContext(t *testing.T) {
	sim := &mockSimilarityService{
		docs: []domain.ContextDoc{{ID: "a", Name: "A", Content: "alpha"}},
		mode: domain.SearchModeText,
	}
	server, err := NewServer(&Ports{Similarity: sim})
	require.NoError(t, err)

	_, output, err := server.handleRetrieveContext(context.Background(), nil, ContextInput{Text: "base", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "text", output.Mode)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "alpha", output.Documents[0].Content)
	assert.Equal(t, 2, sim.gotK)
}

func TestServer_handleGetDocument(t *testing.T) {
	ctx := context.Background()
	key, err := domain.MakeSafeKey("reports/q1.txt")
	require.NoError(t, err)

	query := &mockQueryService{records: map[string]domain.Record{
		key: {"id": key, "name": "Q1", "content": "text"},
	}}
	server, err := NewServer(&Ports{Similarity: &mockSimilarityService{}, Query: query})
	require.NoError(t, err)

	t.Run("by original id", func(t *testing.T) {
		_, output, err := server.handleGetDocument(ctx, nil, GetDocumentInput{OriginalID: "reports/q1.txt"})
		require.NoError(t, err)
		assert.True(t, output.Found)
		assert.Equal(t, key, output.ID)
		assert.Equal(t, "Q1", output.Document["name"])
	})

	t.Run("missing document", func(t *testing.T) {
		_, output, err := server.handleGetDocument(ctx, nil, GetDocumentInput{ID: "nope"})
		require.NoError(t, err)
		assert.False(t, output.Found)
		assert.Nil(t, output.Document)
	})

	t.Run("no identifier", func(t *testing.T) {
		_, _, err := server.handleGetDocument(ctx, nil, GetDocumentInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no query service", func(t *testing.T) {
		bare, err := NewServer(&Ports{Similarity: &mockSimilarityService{}})
		require.NoError(t, err)
		_, _, err = bare.handleGetDocument(ctx, nil, GetDocumentInput{ID: key})
		assert.ErrorIs(t, err, ErrQueryUnavailable)
	})
}

func TestServer_handleSafeKey(t *testing.T) {
	server, err := NewServer(&Ports{Similarity: &mockSimilarityService{}, Keys: &mockKeyService{}})
	require.NoError(t, err)

	_, output, err := server.handleSafeKey(context.Background(), nil, SafeKeyInput{ID: "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "YS9i", output.SafeKey)

	_, _, err = server.handleSafeKey(context.Background(), nil, SafeKeyInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bare, err := NewServer(&Ports{Similarity: &mockSimilarityService{}})
	require.NoError(t, err)
	_, _, err = bare.handleSafeKey(context.Background(), nil, SafeKeyInput{ID: "a"})
	assert.ErrorIs(t, err, ErrKeysUnavailable)
}
