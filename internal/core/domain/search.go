package domain

// QueryHit is a normalised similarity or relevance hit. Scores are
// engine-defined and not comparable across query modes.
type QueryHit struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	LastModified string  `json:"lastModified"`
	Views        int     `json:"views"`
	Score        float64 `json:"score"`
}

// HitFromRecord normalises a search result record.
func HitFromRecord(r Record) QueryHit {
	return QueryHit{
		ID:           r.ID(),
		Name:         r.Name(),
		LastModified: r.LastModified(),
		Views:        r.Views(),
		Score:        r.Score(),
	}
}

// SearchEnvelope is the index service's native result envelope.
type SearchEnvelope struct {
	// Count is the total match count when the query asked for it.
	Count *int64 `json:"@odata.count,omitempty"`

	// Value holds the ranked records.
	Value []Record `json:"value"`
}

// IDs returns the record keys in rank order.
func (e *SearchEnvelope) IDs() []string {
	if e == nil {
		return nil
	}
	ids := make([]string, 0, len(e.Value))
	for _, r := range e.Value {
		if id := r.ID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Hits normalises every record in the envelope.
func (e *SearchEnvelope) Hits() []QueryHit {
	if e == nil {
		return []QueryHit{}
	}
	hits := make([]QueryHit, len(e.Value))
	for i, r := range e.Value {
		hits[i] = HitFromRecord(r)
	}
	return hits
}

// SearchMode selects how similar documents are found.
type SearchMode string

// Available search modes.
const (
	// SearchModeVector embeds the query and runs a nearest-neighbour query.
	SearchModeVector SearchMode = "vector"

	// SearchModeText runs a free-text relevance query.
	SearchModeText SearchMode = "text"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	return m == SearchModeVector || m == SearchModeText
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}
