package services

import (
	"context"
	"fmt"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/logger"
)

var embedLog = logger.For("embedding")

// EmbeddingGateway turns text into fixed-dimension vectors. It truncates
// oversized inputs and rejects any vector whose length differs from the
// configured dimension, so a bad vector never reaches the index.
type EmbeddingGateway struct {
	provider      driven.EmbeddingService
	dimensions    int
	maxInputChars int
}

// NewEmbeddingGateway wraps provider. maxInputChars <= 0 uses
// domain.DefaultMaxInputChars.
func NewEmbeddingGateway(provider driven.EmbeddingService, dimensions, maxInputChars int) (*EmbeddingGateway, error) {
	if provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if dimensions <= 0 {
		return nil, &domain.ConfigError{Key: "embedding.dimensions", Reason: "must be a positive integer"}
	}
	if maxInputChars <= 0 {
		maxInputChars = domain.DefaultMaxInputChars
	}
	return &EmbeddingGateway{
		provider:      provider,
		dimensions:    dimensions,
		maxInputChars: maxInputChars,
	}, nil
}

// Dimensions returns the vector length every embedding must have.
func (g *EmbeddingGateway) Dimensions() int {
	return g.dimensions
}

// Embed returns one vector per text, in input order.
func (g *EmbeddingGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = truncateRunes(t, g.maxInputChars)
		if len(inputs[i]) < len(t) {
			embedLog.Debug("input %d truncated to %d characters", i, g.maxInputChars)
		}
	}

	vectors, err := g.provider.EmbedBatch(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("embed %d text(s) with %s: %w", len(inputs), g.provider.ModelName(), err)
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d inputs", len(vectors), len(inputs))
	}
	for i, v := range vectors {
		if len(v) != g.dimensions {
			return nil, &domain.DimensionMismatchError{Index: i, Got: len(v), Want: g.dimensions}
		}
	}
	return vectors, nil
}

// EmbedOne embeds a single text.
func (g *EmbeddingGateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
