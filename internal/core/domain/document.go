package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Index field names.
const (
	FieldID            = "id"
	FieldOriginalID    = "originalId"
	FieldName          = "name"
	FieldSource        = "source"
	FieldPath          = "path"
	FieldContent       = "content"
	FieldContentVector = "contentVector"
	FieldLastModified  = "lastModified"
	FieldViews         = "views"

	// FieldScore is the relevance score the index attaches to search hits.
	FieldScore = "@search.score"
)

// Source identifies which external store owns the document bytes.
type Source string

// Known document stores.
const (
	SourceBlob     Source = "blob"
	SourceOneDrive Source = "onedrive"
)

// IsValid returns true if the source is recognised.
func (s Source) IsValid() bool {
	return s == SourceBlob || s == SourceOneDrive
}

// String returns the string representation.
func (s Source) String() string {
	return string(s)
}

// RawDocument is a document handed to the indexing pipeline after its text
// has been extracted. ID or Name must be set; ID wins when both are.
type RawDocument struct {
	// ID is the original identifier: a blob path or a drive item id.
	ID string `json:"id,omitempty"`

	// OriginalID overrides the value written to the originalId field.
	OriginalID string `json:"originalId,omitempty"`

	// Name is the display name. It doubles as the identifier when ID is empty.
	Name string `json:"name,omitempty"`

	// Source is the store that owns the bytes.
	Source Source `json:"source,omitempty"`

	// Path locates the bytes inside the store.
	Path string `json:"path,omitempty"`

	// Content is the extracted plain text. Empty means "leave stored content alone".
	Content string `json:"content,omitempty"`

	// LastModified is a sortable timestamp string.
	LastModified string `json:"lastModified,omitempty"`

	// Views is left unset unless the caller owns the counter.
	Views *int `json:"views,omitempty"`

	// Extra carries additional fields. They are written only when the live
	// schema declares them and never override a typed field.
	Extra map[string]any `json:"extra,omitempty"`
}

// Identifier returns the original identifier used to derive the index key.
func (d RawDocument) Identifier() (string, error) {
	if d.ID != "" {
		return d.ID, nil
	}
	if d.Name != "" {
		return d.Name, nil
	}
	return "", fmt.Errorf("%w: document has neither id nor name", ErrInvalidInput)
}

// typedFields are the index fields owned by RawDocument's typed members.
// Extra can never set them.
var typedFields = map[string]bool{
	FieldID:            true,
	FieldOriginalID:    true,
	FieldName:          true,
	FieldSource:        true,
	FieldPath:          true,
	FieldContent:       true,
	FieldContentVector: true,
	FieldLastModified:  true,
	FieldViews:         true,
}

// Fields flattens the document into index field names. The raw id is
// included under FieldID; callers replace it with the safe key. Extra
// entries named like a typed field are dropped.
func (d RawDocument) Fields() map[string]any {
	fields := make(map[string]any, len(d.Extra)+8)
	for k, v := range d.Extra {
		if typedFields[k] {
			continue
		}
		fields[k] = v
	}
	if d.ID != "" {
		fields[FieldID] = d.ID
	}
	if d.OriginalID != "" {
		fields[FieldOriginalID] = d.OriginalID
	}
	if d.Name != "" {
		fields[FieldName] = d.Name
	}
	if d.Source != "" {
		fields[FieldSource] = d.Source.String()
	}
	if d.Path != "" {
		fields[FieldPath] = d.Path
	}
	if d.Content != "" {
		fields[FieldContent] = d.Content
	}
	if d.LastModified != "" {
		fields[FieldLastModified] = d.LastModified
	}
	if d.Views != nil {
		fields[FieldViews] = *d.Views
	}
	return fields
}

// Record is a document as the index stores and returns it.
type Record map[string]any

// ID returns the index key.
func (r Record) ID() string { return r.stringField(FieldID) }

// OriginalID returns the preserved source identifier.
func (r Record) OriginalID() string { return r.stringField(FieldOriginalID) }

// Name returns the display name.
func (r Record) Name() string { return r.stringField(FieldName) }

// Content returns the extracted text.
func (r Record) Content() string { return r.stringField(FieldContent) }

// LastModified returns the modification timestamp string.
func (r Record) LastModified() string { return r.stringField(FieldLastModified) }

// Source returns the owning store.
func (r Record) Source() Source { return Source(r.stringField(FieldSource)) }

// Path returns the store-specific locator.
func (r Record) Path() string { return r.stringField(FieldPath) }

// Views returns the view counter, zero when absent.
func (r Record) Views() int {
	switch v := r[FieldViews].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Score returns the relevance score attached by the index.
func (r Record) Score() float64 {
	switch v := r[FieldScore].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (r Record) stringField(name string) string {
	s, _ := r[name].(string)
	return s
}

// WriteStatus is the per-document outcome of a batch write.
type WriteStatus struct {
	Key          string `json:"key"`
	Succeeded    bool   `json:"status"`
	StatusCode   int    `json:"statusCode"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// IndexWriteResult is the outcome of one merge-or-insert batch.
type IndexWriteResult struct {
	// Value holds one status per submitted document, in service order.
	Value []WriteStatus `json:"value"`

	// Vectorised lists the keys written with a freshly computed vector.
	// The service never reports it; the writer fills it in.
	Vectorised []string `json:"-"`
}

// HasVector reports whether the document under key was written with a
// fresh vector and accepted by the service.
func (r *IndexWriteResult) HasVector(key string) bool {
	if r == nil {
		return false
	}
	for _, s := range r.Value {
		if s.Key == key && !s.Succeeded {
			return false
		}
	}
	for _, k := range r.Vectorised {
		if k == key {
			return true
		}
	}
	return false
}

// Failed returns the statuses of documents the service did not accept.
func (r *IndexWriteResult) Failed() []WriteStatus {
	if r == nil {
		return nil
	}
	var failed []WriteStatus
	for _, s := range r.Value {
		if !s.Succeeded {
			failed = append(failed, s)
		}
	}
	return failed
}

// ContextDoc is a retrieved document handed to generation as grounding context.
type ContextDoc struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	LastModified string `json:"lastModified"`
}

// RecentDocument is the compact display shape for recency listings.
type RecentDocument struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastModified string `json:"lastModified"`
	Views        int    `json:"views"`
}

// StaleDocument is a document listed oldest-first for review.
type StaleDocument struct {
	ID           string `json:"id"`
	OriginalID   string `json:"originalId"`
	Name         string `json:"name"`
	LastModified string `json:"lastModified"`
	Source       Source `json:"source"`
	Path         string `json:"path"`
}

// DayCount is one bucket of the document time series.
type DayCount struct {
	// Date is the UTC calendar day as YYYY-MM-DD.
	Date  string `json:"date"`
	Count int    `json:"count"`
}
