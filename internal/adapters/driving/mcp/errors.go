// Package mcp provides an MCP (Model Context Protocol) server adapter for docspace.
// It lets AI assistants search the document index and pull grounding context.
package mcp

import "errors"

var (
	// ErrMissingSimilarityService is returned when the similarity service is not provided.
	ErrMissingSimilarityService = errors.New("mcp: similarity service is required")

	// ErrQueryUnavailable is returned by tools that need direct index lookups
	// when no query service was provided.
	ErrQueryUnavailable = errors.New("mcp: document lookups are not available")

	// ErrKeysUnavailable is returned by key tools when no key service was provided.
	ErrKeysUnavailable = errors.New("mcp: key service is not available")
)
