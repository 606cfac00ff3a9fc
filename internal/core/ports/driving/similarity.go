package driving

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// SimilarityService picks a query mode for interactive callers. It prefers
// vector similarity and falls back to text relevance when the vector path
// fails or finds nothing.
type SimilarityService interface {
	// Search returns hits and the mode that produced them.
	Search(ctx context.Context, text string, k int, preferVector bool) ([]domain.QueryHit, domain.SearchMode, error)

	// Contexts returns grounding documents and the mode that produced them.
	Contexts(ctx context.Context, text string, k int, preferVector bool) ([]domain.ContextDoc, domain.SearchMode, error)
}
