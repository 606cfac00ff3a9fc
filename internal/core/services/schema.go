package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure SchemaNegotiator implements the interface.
var _ driving.SchemaService = (*SchemaNegotiator)(nil)

// Names used in the vector search section of a created index.
const (
	vectorAlgorithmName = "hnsw-default"
	vectorProfileName   = "vector-profile"
)

var schemaLog = logger.For("schema")

// SchemaOptions configures a SchemaNegotiator.
type SchemaOptions struct {
	// IndexName is the target index. Required.
	IndexName string

	// APIVersions is the ranked version list, newest first.
	// Defaults to domain.DefaultAPIVersions.
	APIVersions []string

	// Vector controls the vector field declared at creation.
	Vector domain.VectorConfig
}

// SchemaNegotiator discovers which protocol version and addressing style
// the index service answers to, creates the index when permitted, and
// caches the result for the lifetime of the process.
type SchemaNegotiator struct {
	transport driven.IndexTransport
	indexName string
	versions  []string
	vector    domain.VectorConfig

	group singleflight.Group

	mu         sync.RWMutex
	descriptor *domain.SchemaDescriptor
	fields     domain.FieldSet
}

// NewSchemaNegotiator creates a negotiator for one index.
func NewSchemaNegotiator(transport driven.IndexTransport, opts SchemaOptions) (*SchemaNegotiator, error) {
	if transport == nil {
		return nil, domain.ErrSearchUnavailable
	}
	if strings.TrimSpace(opts.IndexName) == "" {
		return nil, &domain.ConfigError{Key: "search.index", Reason: "index name is required"}
	}
	if opts.Vector.Enabled && opts.Vector.Dimensions <= 0 {
		return nil, &domain.ConfigError{
			Key:    "embedding.dimensions",
			Reason: "a positive dimension is required when the vector field is enabled",
		}
	}
	versions := opts.APIVersions
	if len(versions) == 0 {
		versions = domain.DefaultAPIVersions
	}
	return &SchemaNegotiator{
		transport: transport,
		indexName: opts.IndexName,
		versions:  append([]string(nil), versions...),
		vector:    opts.Vector,
	}, nil
}

// IndexName returns the target index name.
func (s *SchemaNegotiator) IndexName() string {
	return s.indexName
}

// EnsureReady resolves the descriptor. Versions are tried newest first and,
// within a version, both addressing styles. The first style that returns the
// index description wins. When the index is missing under a version and
// createIfMissing is set, it is created under that version.
//
// Once resolved the descriptor is cached and later calls return
// ReadyStateReady without touching the network.
func (s *SchemaNegotiator) EnsureReady(ctx context.Context, createIfMissing bool) (domain.ReadyState, error) {
	if s.cachedDescriptor() != nil {
		return domain.ReadyStateReady, nil
	}

	key := "resolve"
	if createIfMissing {
		key = "resolve+create"
	}
	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		if s.cachedDescriptor() != nil {
			return domain.ReadyStateReady, nil
		}
		return s.negotiate(ctx, createIfMissing)
	})
	if err != nil {
		return "", err
	}
	return v.(domain.ReadyState), nil
}

// shared runs fn once for all concurrent callers of key. The work runs
// detached from any one caller's cancellation and is bounded by the
// transport timeout; each caller stops waiting when its own ctx is done.
func (s *SchemaNegotiator) shared(
	ctx context.Context, key string, fn func(context.Context) (any, error),
) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	work := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(work)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lastReply keeps the most recent failure seen while probing.
type lastReply struct {
	status int
	body   string
	err    error
}

func (l *lastReply) fromResponse(resp *driven.IndexResponse) {
	l.status = resp.StatusCode
	l.body = truncateRunes(string(resp.Body), 512)
	l.err = nil
}

func (l *lastReply) fromError(err error) {
	l.status = 0
	l.body = ""
	l.err = err
}

func (s *SchemaNegotiator) negotiate(ctx context.Context, createIfMissing bool) (domain.ReadyState, error) {
	defer schemaLog.Timed("negotiate " + s.indexName)()

	var last lastReply
	for _, version := range s.versions {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// The index list is the cheapest call that proves the version is accepted.
		resp, err := s.transport.Do(ctx, driven.IndexRequest{
			Method:     http.MethodGet,
			Path:       "/indexes",
			APIVersion: version,
			Query:      url.Values{"$select": {"name"}},
		})
		if err != nil {
			schemaLog.Warn("version %s: list indexes: %v", version, err)
			last.fromError(err)
			continue
		}
		if !resp.IsSuccess() {
			schemaLog.Debug("version %s rejected with status %d", version, resp.StatusCode)
			last.fromResponse(resp)
			continue
		}

		missing := false
		for _, style := range domain.AddressingStyles {
			desc := domain.SchemaDescriptor{IndexName: s.indexName, APIVersion: version, Style: style}
			resp, err := s.transport.Do(ctx, driven.IndexRequest{
				Method:     http.MethodGet,
				Path:       desc.IndexPath(),
				APIVersion: version,
			})
			if err != nil {
				schemaLog.Warn("version %s, %s addressing: %v", version, style, err)
				last.fromError(err)
				continue
			}
			switch {
			case resp.IsSuccess():
				fields, err := parseIndexFields(resp.Body)
				if err != nil {
					schemaLog.Warn("index description unreadable, fields will be fetched again: %v", err)
					fields = nil
				}
				s.store(desc, fields)
				schemaLog.Info("index %s ready (api-version %s, %s addressing)", s.indexName, version, style)
				return domain.ReadyStateReady, nil
			case resp.StatusCode == http.StatusNotFound:
				missing = true
			}
			last.fromResponse(resp)
		}

		if !missing {
			continue
		}
		if !createIfMissing {
			return "", &domain.AvailabilityError{
				Op:         "ensure ready",
				StatusCode: http.StatusNotFound,
				Body:       last.body,
				Err:        domain.ErrIndexNotFound,
			}
		}
		desc, fields, err := s.create(ctx, version)
		if err != nil {
			return "", err
		}
		s.store(desc, fields)
		schemaLog.Info("index %s created (api-version %s, %s addressing)", s.indexName, version, desc.Style)
		return domain.ReadyStateCreated, nil
	}

	cause := last.err
	if cause == nil {
		cause = fmt.Errorf("no API version in %v answered", s.versions)
	}
	return "", &domain.AvailabilityError{
		Op:         "ensure ready",
		StatusCode: last.status,
		Body:       last.body,
		Err:        cause,
	}
}

// create issues the index definition under version. A conflict reply means
// another writer created it first, which counts as success.
func (s *SchemaNegotiator) create(
	ctx context.Context, version string,
) (domain.SchemaDescriptor, domain.FieldSet, error) {
	def := BuildIndexDefinition(s.indexName, s.vector)

	var attempts []string
	status := 0
	for _, style := range []domain.AddressingStyle{domain.AddressingPathSegment, domain.AddressingFunctionCall} {
		desc := domain.SchemaDescriptor{IndexName: s.indexName, APIVersion: version, Style: style}
		resp, err := s.transport.Do(ctx, driven.IndexRequest{
			Method:     http.MethodPut,
			Path:       desc.IndexPath(),
			APIVersion: version,
			Body:       def,
		})
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", style, err))
			continue
		}
		if resp.IsSuccess() {
			return desc, def.FieldSet(), nil
		}
		if isAlreadyExists(resp) {
			// Someone else's definition may differ from ours; fields are
			// fetched on demand.
			schemaLog.Info("index %s already exists", s.indexName)
			return desc, nil, nil
		}
		status = resp.StatusCode
		attempts = append(attempts, fmt.Sprintf("%s: status %d: %s",
			style, resp.StatusCode, truncateRunes(string(resp.Body), 256)))
	}
	return domain.SchemaDescriptor{}, nil, &domain.AvailabilityError{
		Op:         "create index",
		StatusCode: status,
		Body:       strings.Join(attempts, "; "),
	}
}

func isAlreadyExists(resp *driven.IndexResponse) bool {
	if resp.StatusCode == http.StatusConflict {
		return true
	}
	return resp.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(string(resp.Body)), "already exists")
}

// SchemaFields returns the field names of the live index. The index is
// created if it is missing, since writes are the main caller.
func (s *SchemaNegotiator) SchemaFields(ctx context.Context) (domain.FieldSet, error) {
	if fields := s.cachedFields(); fields != nil {
		return fields, nil
	}
	if _, err := s.EnsureReady(ctx, true); err != nil {
		return nil, err
	}
	if fields := s.cachedFields(); fields != nil {
		return fields, nil
	}

	v, err := s.shared(ctx, "fields", func(ctx context.Context) (any, error) {
		if fields := s.cachedFields(); fields != nil {
			return fields, nil
		}
		desc := s.cachedDescriptor()
		if desc == nil {
			return nil, &domain.AvailabilityError{Op: "get schema fields", Err: domain.ErrSearchUnavailable}
		}
		resp, err := s.transport.Do(ctx, driven.IndexRequest{
			Method:     http.MethodGet,
			Path:       desc.IndexPath(),
			APIVersion: desc.APIVersion,
		})
		if err != nil {
			return nil, &domain.AvailabilityError{Op: "get schema fields", Err: err}
		}
		if !resp.IsSuccess() {
			return nil, &domain.HTTPError{
				Op:         "get schema fields",
				StatusCode: resp.StatusCode,
				Body:       truncateRunes(string(resp.Body), 512),
			}
		}
		fields, err := parseIndexFields(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decode index description: %w", err)
		}
		s.mu.Lock()
		s.fields = fields
		s.mu.Unlock()
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.FieldSet), nil
}

// Descriptor returns the resolved descriptor. Reads never create the index.
func (s *SchemaNegotiator) Descriptor(ctx context.Context) (domain.SchemaDescriptor, error) {
	if desc := s.cachedDescriptor(); desc != nil {
		return *desc, nil
	}
	if _, err := s.EnsureReady(ctx, false); err != nil {
		return domain.SchemaDescriptor{}, err
	}
	desc := s.cachedDescriptor()
	if desc == nil {
		return domain.SchemaDescriptor{}, &domain.AvailabilityError{Op: "descriptor", Err: domain.ErrSearchUnavailable}
	}
	return *desc, nil
}

// Invalidate drops the cached descriptor and fields. The next call
// negotiates again.
func (s *SchemaNegotiator) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptor = nil
	s.fields = nil
}

func (s *SchemaNegotiator) store(desc domain.SchemaDescriptor, fields domain.FieldSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptor = &desc
	s.fields = fields
}

func (s *SchemaNegotiator) cachedDescriptor() *domain.SchemaDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.descriptor
}

func (s *SchemaNegotiator) cachedFields() domain.FieldSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields
}

// IndexDefinition is the body of an index creation request.
type IndexDefinition struct {
	Name         string            `json:"name"`
	Fields       []FieldDefinition `json:"fields"`
	VectorSearch *VectorSearch     `json:"vectorSearch,omitempty"`
}

// FieldDefinition declares one index field. Unset flags take the
// service defaults.
type FieldDefinition struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key,omitempty"`
	Searchable          bool   `json:"searchable,omitempty"`
	Filterable          bool   `json:"filterable,omitempty"`
	Sortable            bool   `json:"sortable,omitempty"`
	Facetable           bool   `json:"facetable,omitempty"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

// VectorSearch configures nearest-neighbour search.
type VectorSearch struct {
	Algorithms []VectorAlgorithm `json:"algorithms"`
	Profiles   []VectorProfile   `json:"profiles"`
}

// VectorAlgorithm is one approximate nearest-neighbour configuration.
type VectorAlgorithm struct {
	Name           string         `json:"name"`
	Kind           string         `json:"kind"`
	HNSWParameters map[string]any `json:"hnswParameters,omitempty"`
}

// VectorProfile binds vector fields to an algorithm.
type VectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

// FieldSet returns the names the definition declares.
func (d IndexDefinition) FieldSet() domain.FieldSet {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return domain.NewFieldSet(names...)
}

// BuildIndexDefinition returns the fixed document schema, with the vector
// field and its search profile when vector is enabled.
func BuildIndexDefinition(indexName string, vector domain.VectorConfig) IndexDefinition {
	def := IndexDefinition{
		Name: indexName,
		Fields: []FieldDefinition{
			{Name: domain.FieldID, Type: "Edm.String", Key: true, Filterable: true},
			{Name: domain.FieldOriginalID, Type: "Edm.String", Filterable: true},
			{Name: domain.FieldName, Type: "Edm.String", Searchable: true, Sortable: true},
			{Name: domain.FieldSource, Type: "Edm.String", Filterable: true, Facetable: true},
			{Name: domain.FieldPath, Type: "Edm.String", Filterable: true},
			{Name: domain.FieldContent, Type: "Edm.String", Searchable: true},
			{Name: domain.FieldLastModified, Type: "Edm.String", Filterable: true, Sortable: true},
			{Name: domain.FieldViews, Type: "Edm.Int32", Filterable: true, Sortable: true},
		},
	}
	if !vector.Enabled {
		return def
	}
	def.Fields = append(def.Fields, FieldDefinition{
		Name:                domain.FieldContentVector,
		Type:                "Collection(Edm.Single)",
		Searchable:          true,
		Dimensions:          vector.Dimensions,
		VectorSearchProfile: vectorProfileName,
	})
	def.VectorSearch = &VectorSearch{
		Algorithms: []VectorAlgorithm{{
			Name: vectorAlgorithmName,
			Kind: "hnsw",
			HNSWParameters: map[string]any{
				"m":              4,
				"efConstruction": 400,
				"efSearch":       500,
				"metric":         "cosine",
			},
		}},
		Profiles: []VectorProfile{{Name: vectorProfileName, Algorithm: vectorAlgorithmName}},
	}
	return def
}

func parseIndexFields(body []byte) (domain.FieldSet, error) {
	var desc struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, err
	}
	if len(desc.Fields) == 0 {
		return nil, fmt.Errorf("index description declares no fields")
	}
	names := make([]string, len(desc.Fields))
	for i, f := range desc.Fields {
		names[i] = f.Name
	}
	return domain.NewFieldSet(names...), nil
}
