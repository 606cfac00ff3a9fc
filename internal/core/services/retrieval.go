package services

import (
	"context"
	"fmt"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure RetrievalOrchestrator implements the interface.
var _ driving.RetrievalService = (*RetrievalOrchestrator)(nil)

var retrievalLog = logger.For("retrieval")

// RetrievalOrchestrator finds similar documents and hydrates them with
// their full content for use as generation context.
type RetrievalOrchestrator struct {
	queries driving.QueryService
}

// NewRetrievalOrchestrator creates an orchestrator over a query service.
func NewRetrievalOrchestrator(queries driving.QueryService) *RetrievalOrchestrator {
	return &RetrievalOrchestrator{queries: queries}
}

// RetrieveSimilarContexts runs one similarity query in the requested mode,
// then fetches each candidate by key. Candidates that no longer resolve
// are skipped; rank order is kept.
func (r *RetrievalOrchestrator) RetrieveSimilarContexts(
	ctx context.Context, baseText string, k int, useVector bool,
) ([]domain.ContextDoc, error) {
	ids, err := r.candidates(ctx, baseText, k, useVector)
	if err != nil {
		return nil, err
	}

	contexts := make([]domain.ContextDoc, 0, len(ids))
	for _, id := range ids {
		record, ok, err := r.queries.GetDocumentByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch candidate %s: %w", id, err)
		}
		if !ok {
			retrievalLog.Debug("candidate %s no longer resolves, skipping", id)
			continue
		}
		contexts = append(contexts, domain.ContextDoc{
			ID:           record.ID(),
			Name:         record.Name(),
			Content:      record.Content(),
			LastModified: record.LastModified(),
		})
	}
	retrievalLog.Debug("assembled %d context(s) from %d candidate(s)", len(contexts), len(ids))
	return contexts, nil
}

func (r *RetrievalOrchestrator) candidates(ctx context.Context, text string, k int, useVector bool) ([]string, error) {
	if useVector {
		env, err := r.queries.VectorSearch(ctx, text, k)
		if err != nil {
			return nil, err
		}
		return env.IDs(), nil
	}
	hits, err := r.queries.TextSearch(ctx, text, k, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.ID != "" {
			ids = append(ids, h.ID)
		}
	}
	return ids, nil
}
