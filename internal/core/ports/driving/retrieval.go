package driving

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// RetrievalService assembles grounding context for generation calls.
type RetrievalService interface {
	// RetrieveSimilarContexts returns up to k documents similar to baseText,
	// in rank order, with their full content.
	RetrieveSimilarContexts(ctx context.Context, baseText string, k int, useVector bool) ([]domain.ContextDoc, error)
}
