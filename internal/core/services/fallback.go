package services

import (
	"context"
	"errors"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure FallbackSearcher implements the interface.
var _ driving.SimilarityService = (*FallbackSearcher)(nil)

var fallbackLog = logger.For("similarity")

// FallbackSearcher serves interactive callers. It tries vector similarity
// first and retries with text relevance when that fails or finds nothing.
// Invalid input is never retried.
type FallbackSearcher struct {
	queries   driving.QueryService
	retrieval driving.RetrievalService
}

// NewFallbackSearcher creates a searcher over the query and retrieval services.
func NewFallbackSearcher(queries driving.QueryService, retrieval driving.RetrievalService) *FallbackSearcher {
	return &FallbackSearcher{queries: queries, retrieval: retrieval}
}

// Search returns hits and the mode that produced them.
func (f *FallbackSearcher) Search(
	ctx context.Context, text string, k int, preferVector bool,
) ([]domain.QueryHit, domain.SearchMode, error) {
	if preferVector {
		env, err := f.queries.VectorSearch(ctx, text, k)
		switch {
		case err == nil && len(env.Value) > 0:
			return env.Hits(), domain.SearchModeVector, nil
		case !shouldFallBack(ctx, err):
			return nil, domain.SearchModeVector, err
		case err != nil:
			fallbackLog.Info("vector search failed, using text search: %v", err)
		default:
			fallbackLog.Info("vector search found nothing, using text search")
		}
	}
	hits, err := f.queries.TextSearch(ctx, text, k, nil)
	if err != nil {
		return nil, domain.SearchModeText, err
	}
	return hits, domain.SearchModeText, nil
}

// Contexts returns grounding documents and the mode that produced them.
func (f *FallbackSearcher) Contexts(
	ctx context.Context, text string, k int, preferVector bool,
) ([]domain.ContextDoc, domain.SearchMode, error) {
	if preferVector {
		docs, err := f.retrieval.RetrieveSimilarContexts(ctx, text, k, true)
		switch {
		case err == nil && len(docs) > 0:
			return docs, domain.SearchModeVector, nil
		case !shouldFallBack(ctx, err):
			return nil, domain.SearchModeVector, err
		case err != nil:
			fallbackLog.Info("vector retrieval failed, using text search: %v", err)
		default:
			fallbackLog.Info("vector retrieval found nothing, using text search")
		}
	}
	docs, err := f.retrieval.RetrieveSimilarContexts(ctx, text, k, false)
	if err != nil {
		return nil, domain.SearchModeText, err
	}
	return docs, domain.SearchModeText, nil
}

// shouldFallBack reports whether a vector failure is worth a text retry.
func shouldFallBack(ctx context.Context, err error) bool {
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, domain.ErrInvalidInput)
}
