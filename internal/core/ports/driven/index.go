package driven

import (
	"context"
	"net/url"
)

// IndexTransport exchanges raw requests with the search index service.
//
// The core decides paths, API versions, and how to read status codes; the
// transport owns the endpoint, credentials, throttling, and timeouts. A non-2xx
// reply is NOT an error at this level: it is returned as a response so the
// core can tell "not found" from "unavailable". Errors are reserved for
// requests that produced no reply at all (network failure, timeout).
type IndexTransport interface {
	// Do sends one request and returns the reply.
	Do(ctx context.Context, req IndexRequest) (*IndexResponse, error)

	// Close releases resources.
	Close() error
}

// IndexRequest is one call to the index service.
type IndexRequest struct {
	// Method is the HTTP method.
	Method string

	// Path is relative to the service endpoint, e.g. /indexes('docs')/docs.
	Path string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string

	// Query holds additional query parameters.
	Query url.Values

	// Body is encoded as JSON when non-nil.
	Body any
}

// IndexResponse is the reply to an IndexRequest.
type IndexResponse struct {
	StatusCode int
	Body       []byte
}

// IsSuccess returns true for 2xx replies.
func (r *IndexResponse) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}
