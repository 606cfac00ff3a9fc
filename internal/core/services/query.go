package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure QueryEngine implements the interface.
var _ driving.QueryService = (*QueryEngine)(nil)

// Query limits and defaults.
const (
	// DefaultTopK is used when a similarity query asks for k <= 0.
	DefaultTopK = 5

	// MaxQueryChars bounds a text query before submission.
	MaxQueryChars = 3000

	// DefaultRecentLimit and DefaultStaleLimit are the listing sizes.
	DefaultRecentLimit = 20
	DefaultStaleLimit  = 50

	// timeSeriesSample is how many recent records the time series looks at.
	// Days with older documents are under-counted on large indexes.
	timeSeriesSample = 1000
)

var defaultSelect = []string{
	domain.FieldID, domain.FieldName, domain.FieldLastModified, domain.FieldViews,
}

var staleSelect = []string{
	domain.FieldID, domain.FieldOriginalID, domain.FieldName,
	domain.FieldLastModified, domain.FieldSource, domain.FieldPath,
}

var queryLog = logger.For("query")

// QueryEngine runs similarity, lookup, and listing queries.
type QueryEngine struct {
	schema    driving.SchemaService
	transport driven.IndexTransport
	gateway   *EmbeddingGateway
	now       func() time.Time
}

// NewQueryEngine creates a query engine. The gateway is optional (can be
// nil); without it VectorSearch returns domain.ErrEmbeddingUnavailable.
func NewQueryEngine(
	schema driving.SchemaService,
	transport driven.IndexTransport,
	gateway *EmbeddingGateway,
) *QueryEngine {
	return &QueryEngine{
		schema:    schema,
		transport: transport,
		gateway:   gateway,
		now:       time.Now,
	}
}

// SetClock replaces the clock used to anchor the time series.
func (q *QueryEngine) SetClock(now func() time.Time) {
	q.now = now
}

// VectorSearch embeds text and asks for its k nearest neighbours.
func (q *QueryEngine) VectorSearch(ctx context.Context, text string, k int) (*domain.SearchEnvelope, error) {
	if q.gateway == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	defer queryLog.Timed("vector search")()

	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return nil, err
	}
	vector, err := q.gateway.EmbedOne(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	body := map[string]any{
		"count":  true,
		"select": strings.Join(defaultSelect, ","),
		"top":    k,
		"vectorQueries": []map[string]any{{
			"kind":   "vector",
			"vector": vector,
			"k":      k,
			"fields": domain.FieldContentVector,
		}},
	}
	env, err := q.search(ctx, "vector search", desc, body)
	if err != nil {
		return nil, err
	}
	queryLog.Debug("vector search returned %d hit(s)", len(env.Value))
	return env, nil
}

// TextSearch runs a simple free-text query over the searchable fields.
func (q *QueryEngine) TextSearch(
	ctx context.Context, text string, k int, selectFields []string,
) ([]domain.QueryHit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if len(selectFields) == 0 {
		selectFields = defaultSelect
	}
	defer queryLog.Timed("text search")()

	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"search":    truncateRunes(text, MaxQueryChars),
		"queryType": "simple",
		"top":       k,
		"select":    strings.Join(selectFields, ","),
	}
	env, err := q.search(ctx, "text search", desc, body)
	if err != nil {
		return nil, err
	}
	queryLog.Debug("text search returned %d hit(s)", len(env.Value))
	return env.Hits(), nil
}

// GetDocumentByID returns the full record stored under a safe key.
func (q *QueryEngine) GetDocumentByID(ctx context.Context, id string) (domain.Record, bool, error) {
	if id == "" {
		return nil, false, fmt.Errorf("%w: empty id", domain.ErrInvalidInput)
	}
	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return nil, false, err
	}
	env, err := q.list(ctx, "get document", desc, url.Values{
		"$filter": {domain.FieldID + " eq " + escapeFilterLiteral(id)},
		"$top":    {"1"},
	})
	if err != nil {
		return nil, false, err
	}
	if len(env.Value) == 0 {
		return nil, false, nil
	}
	return env.Value[0], true, nil
}

// RecentDocuments lists documents by descending modification time.
func (q *QueryEngine) RecentDocuments(ctx context.Context, top int) ([]domain.RecentDocument, error) {
	if top <= 0 {
		top = DefaultRecentLimit
	}
	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return nil, err
	}
	env, err := q.list(ctx, "recent documents", desc, url.Values{
		"search":   {"*"},
		"$top":     {strconv.Itoa(top)},
		"$orderby": {domain.FieldLastModified + " desc"},
		"$select":  {strings.Join(defaultSelect, ",")},
	})
	if err != nil {
		return nil, err
	}
	docs := make([]domain.RecentDocument, len(env.Value))
	for i, r := range env.Value {
		docs[i] = domain.RecentDocument{
			ID:           r.ID(),
			Name:         r.Name(),
			LastModified: r.LastModified(),
			Views:        r.Views(),
		}
	}
	return docs, nil
}

// StaleDocuments lists documents by ascending modification time.
func (q *QueryEngine) StaleDocuments(ctx context.Context, top int) ([]domain.StaleDocument, error) {
	if top <= 0 {
		top = DefaultStaleLimit
	}
	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return nil, err
	}
	env, err := q.search(ctx, "stale documents", desc, map[string]any{
		"search":    "*",
		"queryType": "simple",
		"top":       top,
		"select":    strings.Join(staleSelect, ","),
		"orderby":   domain.FieldLastModified + " asc",
	})
	if err != nil {
		return nil, err
	}
	docs := make([]domain.StaleDocument, len(env.Value))
	for i, r := range env.Value {
		docs[i] = domain.StaleDocument{
			ID:           r.ID(),
			OriginalID:   r.OriginalID(),
			Name:         r.Name(),
			LastModified: r.LastModified(),
			Source:       r.Source(),
			Path:         r.Path(),
		}
	}
	return docs, nil
}

// DocumentCount returns the number of documents in the index.
func (q *QueryEngine) DocumentCount(ctx context.Context) (int64, error) {
	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return 0, err
	}
	env, err := q.list(ctx, "document count", desc, url.Values{
		"search": {"*"},
		"$count": {"true"},
		"$top":   {"0"},
	})
	if err != nil {
		return 0, err
	}
	if env.Count == nil {
		return 0, fmt.Errorf("document count: reply carried no @odata.count")
	}
	return *env.Count, nil
}

// TimeSeriesCounts buckets the most recent documents by UTC day over the
// trailing window ending today. Days without documents are zero.
func (q *QueryEngine) TimeSeriesCounts(ctx context.Context, days int) ([]domain.DayCount, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", domain.ErrInvalidInput)
	}
	desc, err := q.schema.Descriptor(ctx)
	if err != nil {
		return nil, err
	}
	env, err := q.list(ctx, "time series", desc, url.Values{
		"search":   {"*"},
		"$top":     {strconv.Itoa(timeSeriesSample)},
		"$orderby": {domain.FieldLastModified + " desc"},
		"$select":  {domain.FieldID + "," + domain.FieldLastModified},
	})
	if err != nil {
		return nil, err
	}

	today := q.now().UTC()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(days - 1))

	counts := make(map[string]int, days)
	for _, r := range env.Value {
		if day, ok := utcDay(r.LastModified()); ok {
			counts[day]++
		}
	}

	series := make([]domain.DayCount, days)
	for i := range series {
		day := start.AddDate(0, 0, i).Format(time.DateOnly)
		series[i] = domain.DayCount{Date: day, Count: counts[day]}
	}
	return series, nil
}

// utcDay extracts the UTC calendar day of a timestamp string.
func utcDay(ts string) (string, bool) {
	if ts == "" {
		return "", false
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC().Format(time.DateOnly), true
	}
	if len(ts) >= len(time.DateOnly) {
		if t, err := time.Parse(time.DateOnly, ts[:len(time.DateOnly)]); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

func (q *QueryEngine) search(
	ctx context.Context, op string, desc domain.SchemaDescriptor, body map[string]any,
) (*domain.SearchEnvelope, error) {
	return q.do(ctx, op, driven.IndexRequest{
		Method:     http.MethodPost,
		Path:       desc.DocsPath() + "/search",
		APIVersion: desc.APIVersion,
		Body:       body,
	})
}

func (q *QueryEngine) list(
	ctx context.Context, op string, desc domain.SchemaDescriptor, query url.Values,
) (*domain.SearchEnvelope, error) {
	return q.do(ctx, op, driven.IndexRequest{
		Method:     http.MethodGet,
		Path:       desc.DocsPath(),
		APIVersion: desc.APIVersion,
		Query:      query,
	})
}

func (q *QueryEngine) do(ctx context.Context, op string, req driven.IndexRequest) (*domain.SearchEnvelope, error) {
	resp, err := q.transport.Do(ctx, req)
	if err != nil {
		return nil, &domain.AvailabilityError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &domain.HTTPError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       truncateRunes(string(resp.Body), 1024),
		}
	}
	var env domain.SearchEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("%s: decode reply: %w", op, err)
	}
	if env.Value == nil {
		env.Value = []domain.Record{}
	}
	return &env, nil
}
