package domain

import (
	"fmt"
	"sort"
)

// AddressingStyle is one of the two conventions the index service has used
// to reference a named index in a URL.
type AddressingStyle string

// Known addressing styles.
const (
	// AddressingFunctionCall references an index as indexes('name').
	AddressingFunctionCall AddressingStyle = "function-call"

	// AddressingPathSegment references an index as indexes/name.
	AddressingPathSegment AddressingStyle = "path-segment"
)

// AddressingStyles lists both conventions in the order they are tried.
var AddressingStyles = []AddressingStyle{AddressingFunctionCall, AddressingPathSegment}

// IndexPath returns the URL path of the named index under this style.
func (s AddressingStyle) IndexPath(indexName string) string {
	if s == AddressingPathSegment {
		return "/indexes/" + indexName
	}
	return fmt.Sprintf("/indexes('%s')", indexName)
}

// String returns the string representation.
func (s AddressingStyle) String() string {
	return string(s)
}

// ReadyState reports how EnsureReady found the index.
type ReadyState string

// Ready states.
const (
	ReadyStateReady   ReadyState = "ready"
	ReadyStateCreated ReadyState = "created"
)

// SchemaDescriptor is the protocol version and addressing style that the
// live index answered to.
type SchemaDescriptor struct {
	IndexName  string
	APIVersion string
	Style      AddressingStyle
}

// IndexPath returns the URL path of the index description.
func (d SchemaDescriptor) IndexPath() string {
	return d.Style.IndexPath(d.IndexName)
}

// DocsPath returns the URL path of the document collection.
func (d SchemaDescriptor) DocsPath() string {
	return d.IndexPath() + "/docs"
}

// FieldSet is the set of field names the live schema declares.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from names.
func NewFieldSet(names ...string) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Has reports whether the schema declares name.
func (fs FieldSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the field names in sorted order.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// VectorConfig describes the vector field declared at index creation.
type VectorConfig struct {
	// Enabled adds the contentVector field and its search profile.
	Enabled bool

	// Dimensions is the fixed embedding length. Required when Enabled.
	Dimensions int
}
