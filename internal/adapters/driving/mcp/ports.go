package mcp

import (
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Similarity runs searches and context retrieval with fallback.
	Similarity driving.SimilarityService

	// Query fetches documents by key and reports index statistics.
	Query driving.QueryService

	// Keys derives and traces safe keys.
	Keys driving.KeyService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Similarity == nil {
		return ErrMissingSimilarityService
	}
	// Query and Keys are optional; their tools report unavailability.
	return nil
}
