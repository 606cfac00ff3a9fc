package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

func TestNewEmbeddingGateway_Validation(t *testing.T) {
	_, err := NewEmbeddingGateway(nil, 4, 0)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = NewEmbeddingGateway(newMockEmbedder(4), 0, 0)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "embedding.dimensions", cfgErr.Key)

	g, err := NewEmbeddingGateway(newMockEmbedder(4), 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Dimensions())
	assert.Equal(t, domain.DefaultMaxInputChars, g.maxInputChars)
}

func TestEmbeddingGateway_Embed(t *testing.T) {
	m := newMockEmbedder(4)
	g, err := NewEmbeddingGateway(m, 4, 0)
	require.NoError(t, err)

	vectors, err := g.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, m.vectorFor("alpha"), vectors[0])
	assert.Equal(t, m.vectorFor("beta"), vectors[1])
}

func TestEmbeddingGateway_EmptyInput(t *testing.T) {
	m := newMockEmbedder(4)
	g, err := NewEmbeddingGateway(m, 4, 0)
	require.NoError(t, err)

	vectors, err := g.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, m.callCount(), "no provider call for an empty batch")
}

func TestEmbeddingGateway_TruncatesInputs(t *testing.T) {
	m := newMockEmbedder(4)
	g, err := NewEmbeddingGateway(m, 4, 10)
	require.NoError(t, err)

	long := strings.Repeat("é", 25)
	_, err = g.Embed(context.Background(), []string{long, "short"})
	require.NoError(t, err)

	sent := m.calls[0]
	assert.Equal(t, 10, utf8.RuneCountInString(sent[0]))
	assert.True(t, utf8.ValidString(sent[0]))
	assert.Equal(t, "short", sent[1])
}

func TestEmbeddingGateway_DimensionMismatch(t *testing.T) {
	m := newMockEmbedder(4)
	m.short = 1
	g, err := NewEmbeddingGateway(m, 4, 0)
	require.NoError(t, err)

	_, err = g.Embed(context.Background(), []string{"a", "b", "c"})
	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
	assert.Equal(t, 3, mismatch.Got)
	assert.Equal(t, 4, mismatch.Want)
}

func TestEmbeddingGateway_ProviderError(t *testing.T) {
	m := newMockEmbedder(4)
	m.err = errors.New("quota exceeded")
	g, err := NewEmbeddingGateway(m, 4, 0)
	require.NoError(t, err)

	_, err = g.EmbedOne(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "mock-embedder")
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "abc", 5, "abc"},
		{"exact limit", "abcde", 5, "abcde"},
		{"cut ascii", "abcdef", 3, "abc"},
		{"cut multibyte", "日本語テキスト", 3, "日本語"},
		{"zero limit keeps input", "abc", 0, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateRunes(tt.in, tt.n))
		})
	}
}

func TestEscapeFilterLiteral(t *testing.T) {
	assert.Equal(t, "'abc'", escapeFilterLiteral("abc"))
	assert.Equal(t, "'O''Brien'", escapeFilterLiteral("O'Brien"))
}
