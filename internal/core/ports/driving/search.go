package driving

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// QueryService runs similarity and listing queries against the index.
type QueryService interface {
	// VectorSearch embeds text and returns the k nearest documents in the
	// service's native envelope.
	VectorSearch(ctx context.Context, text string, k int) (*domain.SearchEnvelope, error)

	// TextSearch runs a free-text relevance query. An empty selectFields
	// uses the default projection.
	TextSearch(ctx context.Context, text string, k int, selectFields []string) ([]domain.QueryHit, error)

	// GetDocumentByID returns the full record for a safe key. The boolean is
	// false when no document matches.
	GetDocumentByID(ctx context.Context, id string) (domain.Record, bool, error)

	// RecentDocuments returns the most recently modified documents.
	RecentDocuments(ctx context.Context, top int) ([]domain.RecentDocument, error)

	// StaleDocuments returns the least recently modified documents.
	StaleDocuments(ctx context.Context, top int) ([]domain.StaleDocument, error)

	// DocumentCount returns the index population.
	DocumentCount(ctx context.Context) (int64, error)

	// TimeSeriesCounts returns approximate per-day document counts for the
	// trailing window, oldest day first.
	TimeSeriesCounts(ctx context.Context, days int) ([]domain.DayCount, error)
}
