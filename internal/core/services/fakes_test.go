package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
)

// --- fakeIndex ---

// fakeIndex emulates the search index service in memory. Request bodies
// go through JSON so the fake sees exactly what the wire would carry.
type fakeIndex struct {
	mu sync.Mutex

	name   string
	exists bool
	fields []string
	docs   map[string]map[string]any

	// versions lists accepted API versions; empty accepts all.
	versions []string
	// styles lists answered addressing styles; empty answers both.
	styles []domain.AddressingStyle

	// intercept, when set, may answer a request before the emulation.
	// Returning a nil response and nil error passes the request through.
	intercept func(req driven.IndexRequest) (*driven.IndexResponse, error)

	calls       []driven.IndexRequest
	createCalls int
	writeCalls  int
	closed      bool
}

func newFakeIndex(name string) *fakeIndex {
	return &fakeIndex{name: name, docs: make(map[string]map[string]any)}
}

// withSchema makes the index exist with the given fields.
func (f *fakeIndex) withSchema(fields ...string) *fakeIndex {
	f.exists = true
	f.fields = fields
	return f
}

func (f *fakeIndex) put(doc map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc[domain.FieldID].(string)] = doc
}

func (f *fakeIndex) doc(id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	return d, ok
}

func (f *fakeIndex) callsTo(method, suffix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && strings.HasSuffix(c.Path, suffix) {
			n++
		}
	}
	return n
}

func (f *fakeIndex) lastCall() driven.IndexRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeIndex) Close() error {
	f.closed = true
	return nil
}

func (f *fakeIndex) Do(ctx context.Context, req driven.IndexRequest) (*driven.IndexResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	intercept := f.intercept
	f.mu.Unlock()

	if intercept != nil {
		if resp, err := intercept(req); resp != nil || err != nil {
			return resp, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.versions) > 0 && !contains(f.versions, req.APIVersion) {
		return reply(http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "Invalid or missing api-version query string parameter."},
		}), nil
	}

	var body map[string]any
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
	}

	if req.Path == "/indexes" && req.Method == http.MethodGet {
		names := []any{}
		if f.exists {
			names = append(names, map[string]any{"name": f.name})
		}
		return reply(http.StatusOK, map[string]any{"value": names}), nil
	}

	style, rest, ok := f.route(req.Path)
	if !ok {
		return reply(http.StatusNotFound, map[string]any{"error": map[string]any{"message": "no such resource"}}), nil
	}
	if len(f.styles) > 0 && !containsStyle(f.styles, style) {
		return reply(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "malformed URL"}}), nil
	}

	switch {
	case rest == "" && req.Method == http.MethodGet:
		if !f.exists {
			return reply(http.StatusNotFound, map[string]any{"error": map[string]any{"message": "index not found"}}), nil
		}
		fields := make([]any, len(f.fields))
		for i, name := range f.fields {
			fields[i] = map[string]any{"name": name}
		}
		return reply(http.StatusOK, map[string]any{"name": f.name, "fields": fields}), nil

	case rest == "" && req.Method == http.MethodPut:
		f.createCalls++
		status := http.StatusCreated
		if f.exists {
			status = http.StatusNoContent
		}
		f.exists = true
		f.fields = nil
		for _, fd := range body["fields"].([]any) {
			f.fields = append(f.fields, fd.(map[string]any)["name"].(string))
		}
		return &driven.IndexResponse{StatusCode: status}, nil
	}

	if !f.exists {
		return reply(http.StatusNotFound, map[string]any{"error": map[string]any{"message": "index not found"}}), nil
	}

	switch {
	case rest == "/docs/index" && req.Method == http.MethodPost:
		return f.index(body), nil
	case rest == "/docs/search" && req.Method == http.MethodPost:
		return f.search(body), nil
	case rest == "/docs" && req.Method == http.MethodGet:
		return f.list(req), nil
	}
	return reply(http.StatusNotFound, map[string]any{"error": map[string]any{"message": "no such resource"}}), nil
}

func (f *fakeIndex) route(path string) (domain.AddressingStyle, string, bool) {
	for _, style := range domain.AddressingStyles {
		prefix := style.IndexPath(f.name)
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return style, strings.TrimPrefix(path, prefix), true
		}
	}
	return "", "", false
}

func (f *fakeIndex) index(body map[string]any) *driven.IndexResponse {
	f.writeCalls++
	statuses := []any{}
	for _, item := range body["value"].([]any) {
		action := item.(map[string]any)
		key, _ := action[domain.FieldID].(string)
		if action["@search.action"] != actionMergeOrUpload {
			statuses = append(statuses, map[string]any{
				"key": key, "status": false, "statusCode": 400, "errorMessage": "unsupported action",
			})
			continue
		}
		delete(action, "@search.action")
		existing, ok := f.docs[key]
		code := 200
		if !ok {
			existing = map[string]any{}
			code = 201
		}
		for k, v := range action {
			existing[k] = v
		}
		f.docs[key] = existing
		statuses = append(statuses, map[string]any{"key": key, "status": true, "statusCode": code})
	}
	return reply(http.StatusOK, map[string]any{"value": statuses})
}

func (f *fakeIndex) search(body map[string]any) *driven.IndexResponse {
	top := intOf(body["top"], 50)
	selected := splitSelect(body["select"])

	type scored struct {
		doc   map[string]any
		score float64
	}
	var hits []scored

	switch {
	case body["vectorQueries"] != nil:
		vq := body["vectorQueries"].([]any)[0].(map[string]any)
		query := floats(vq["vector"])
		for _, d := range f.docs {
			stored := floats(d[domain.FieldContentVector])
			if len(stored) == 0 {
				continue
			}
			hits = append(hits, scored{doc: d, score: cosine(query, stored)})
		}
	default:
		text, _ := body["search"].(string)
		for _, d := range f.docs {
			s := textScore(text, d)
			if s > 0 {
				hits = append(hits, scored{doc: d, score: s})
			}
		}
	}

	if order, _ := body["orderby"].(string); order != "" {
		docs := make([]map[string]any, len(hits))
		for i, h := range hits {
			docs[i] = h.doc
		}
		orderDocs(docs, order)
		for i := range hits {
			hits[i] = scored{doc: docs[i], score: 1}
		}
	} else {
		sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].score != hits[j].score {
				return hits[i].score > hits[j].score
			}
			return hits[i].doc[domain.FieldID].(string) < hits[j].doc[domain.FieldID].(string)
		})
	}

	total := len(hits)
	if len(hits) > top {
		hits = hits[:top]
	}
	value := make([]any, len(hits))
	for i, h := range hits {
		rec := project(h.doc, selected)
		rec[domain.FieldScore] = h.score
		value[i] = rec
	}
	out := map[string]any{"value": value}
	if body["count"] == true {
		out["@odata.count"] = total
	}
	return reply(http.StatusOK, out)
}

func (f *fakeIndex) list(req driven.IndexRequest) *driven.IndexResponse {
	q := req.Query
	var docs []map[string]any
	if filter := q.Get("$filter"); filter != "" {
		want, ok := parseIDFilter(filter)
		if !ok {
			return reply(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad filter"}})
		}
		if d, found := f.docs[want]; found {
			docs = append(docs, d)
		}
	} else {
		for _, d := range f.docs {
			docs = append(docs, d)
		}
		sort.Slice(docs, func(i, j int) bool {
			return docs[i][domain.FieldID].(string) < docs[j][domain.FieldID].(string)
		})
	}
	if order := q.Get("$orderby"); order != "" {
		orderDocs(docs, order)
	}
	total := len(docs)
	if top := q.Get("$top"); top != "" {
		n, _ := strconv.Atoi(top)
		if n < len(docs) {
			docs = docs[:n]
		}
	}
	selected := splitSelect(q.Get("$select"))
	value := make([]any, len(docs))
	for i, d := range docs {
		value[i] = project(d, selected)
	}
	out := map[string]any{"value": value}
	if q.Get("$count") == "true" {
		out["@odata.count"] = total
	}
	return reply(http.StatusOK, out)
}

// parseIDFilter reads "id eq '...'" with doubled quotes.
func parseIDFilter(filter string) (string, bool) {
	const prefix = "id eq '"
	if !strings.HasPrefix(filter, prefix) || !strings.HasSuffix(filter, "'") {
		return "", false
	}
	inner := filter[len(prefix) : len(filter)-1]
	return strings.ReplaceAll(inner, "''", "'"), true
}

func orderDocs(docs []map[string]any, order string) {
	parts := strings.Fields(order)
	field := parts[0]
	desc := len(parts) > 1 && parts[1] == "desc"
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i][field].(string)
		b, _ := docs[j][field].(string)
		if desc {
			return a > b
		}
		return a < b
	})
}

func textScore(query string, doc map[string]any) float64 {
	if query == "*" {
		return 1
	}
	content, _ := doc[domain.FieldContent].(string)
	name, _ := doc[domain.FieldName].(string)
	haystack := strings.ToLower(content + " " + name)
	score := 0.0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		score += float64(strings.Count(haystack, term))
	}
	return score
}

func project(doc map[string]any, selected []string) map[string]any {
	out := make(map[string]any)
	if len(selected) == 0 {
		for k, v := range doc {
			out[k] = v
		}
		return out
	}
	for _, s := range selected {
		if v, ok := doc[s]; ok {
			out[s] = v
		}
	}
	return out
}

func splitSelect(v any) []string {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func intOf(v any, def int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return def
}

func floats(v any) []float64 {
	items, _ := v.([]any)
	out := make([]float64, len(items))
	for i, item := range items {
		out[i], _ = item.(float64)
	}
	return out
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func reply(status int, body any) *driven.IndexResponse {
	raw, _ := json.Marshal(body)
	return &driven.IndexResponse{StatusCode: status, Body: raw}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsStyle(list []domain.AddressingStyle, s domain.AddressingStyle) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- mockEmbedder ---

// mockEmbedder implements driven.EmbeddingService. Each text maps to a
// deterministic vector built from its bytes unless vectors overrides it.
type mockEmbedder struct {
	mu         sync.Mutex
	dimensions int
	vectors    map[string][]float32
	err        error
	// short makes the returned vector at this position one element short.
	short int
	calls [][]string
}

func newMockEmbedder(dimensions int) *mockEmbedder {
	return &mockEmbedder{dimensions: dimensions, vectors: map[string][]float32{}, short: -1}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, m.dimensions)
	for i := 0; i < len(text); i++ {
		v[i%m.dimensions] += float32(text[i]) / 255
	}
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
		if i == m.short {
			out[i] = out[i][:len(out[i])-1]
		}
	}
	return out, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEmbedder) Dimensions() int             { return m.dimensions }
func (m *mockEmbedder) ModelName() string           { return "mock-embedder" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                { return nil }

// --- mockLedger ---

// mockLedger implements driven.KeyLedger in memory.
type mockLedger struct {
	entries   map[string]domain.LedgerEntry
	recordErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{entries: map[string]domain.LedgerEntry{}}
}

func (m *mockLedger) Record(_ context.Context, entries []domain.LedgerEntry) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	for _, e := range entries {
		m.entries[e.SafeID] = e
	}
	return nil
}

func (m *mockLedger) Get(_ context.Context, safeID string) (*domain.LedgerEntry, error) {
	e, ok := m.entries[safeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *mockLedger) FindByOriginal(_ context.Context, originalID string) (*domain.LedgerEntry, error) {
	for _, e := range m.entries {
		if e.OriginalID == originalID {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLedger) Count(_ context.Context) (int, error) { return len(m.entries), nil }
func (m *mockLedger) Close() error                        { return nil }

// --- helpers ---

var errTransport = errors.New("connection refused")

// vectorFields is the schema of an index created with vectors enabled.
func vectorFields() []string {
	return BuildIndexDefinition("docs", domain.VectorConfig{Enabled: true, Dimensions: 4}).FieldSet().Names()
}

// textFields is the schema of an index created without vectors.
func textFields() []string {
	return BuildIndexDefinition("docs", domain.VectorConfig{}).FieldSet().Names()
}

func intPtr(n int) *int { return &n }

func mustNegotiator(idx *fakeIndex, vector domain.VectorConfig) *SchemaNegotiator {
	s, err := NewSchemaNegotiator(idx, SchemaOptions{IndexName: idx.name, Vector: vector})
	if err != nil {
		panic(fmt.Sprintf("negotiator: %v", err))
	}
	return s
}
