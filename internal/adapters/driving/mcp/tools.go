package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// defaultLimit is the result count when a tool call gives none.
const defaultLimit = 5

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"text to find similar documents for"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Vector *bool  `json:"vector,omitempty" jsonschema:"prefer vector similarity (default true); falls back to text relevance"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Mode    string            `json:"mode"`
	Results []domain.QueryHit `json:"results"`
	Count   int               `json:"count"`
}

// ContextInput is the input schema for the retrieve_context tool.
type ContextInput struct {
	Text   string `json:"text" jsonschema:"base text to find grounding documents for"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of documents to return (default 5)"`
	Vector *bool  `json:"vector,omitempty" jsonschema:"prefer vector similarity (default true); falls back to text relevance"`
}

// ContextOutput is the output schema for the retrieve_context tool.
type ContextOutput struct {
	Mode      string              `json:"mode"`
	Documents []domain.ContextDoc `json:"documents"`
	Count     int                 `json:"count"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID         string `json:"id,omitempty" jsonschema:"safe index key of the document"`
	OriginalID string `json:"original_id,omitempty" jsonschema:"original identifier, used when id is empty"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	ID       string         `json:"id"`
	Found    bool           `json:"found"`
	Document map[string]any `json:"document,omitempty"`
}

// SafeKeyInput is the input schema for the safe_key tool.
type SafeKeyInput struct {
	ID string `json:"id" jsonschema:"original identifier such as a blob path or drive item id"`
}

// SafeKeyOutput is the output schema for the safe_key tool.
type SafeKeyOutput struct {
	ID      string `json:"id"`
	SafeKey string `json:"safe_key"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find indexed documents similar to a piece of text",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve the full text of documents similar to a piece of text, for use as grounding context",
	}, s.handleRetrieveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch one indexed document by safe key or original identifier",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "safe_key",
		Description: "Compute the index key for an original document identifier",
	}, s.handleSafeKey)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func preferVector(v *bool) bool {
	return v == nil || *v
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, mode, err := s.ports.Similarity.Search(ctx, input.Query, limitOrDefault(input.Limit), preferVector(input.Vector))
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if hits == nil {
		hits = []domain.QueryHit{}
	}

	return nil, SearchOutput{Mode: mode.String(), Results: hits, Count: len(hits)}, nil
}

// handleRetrieveContext handles the retrieve_context tool invocation.
func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	docs, mode, err := s.ports.Similarity.Contexts(ctx, input.Text, limitOrDefault(input.Limit), preferVector(input.Vector))
	if err != nil {
		return nil, ContextOutput{}, err
	}
	if docs == nil {
		docs = []domain.ContextDoc{}
	}

	return nil, ContextOutput{Mode: mode.String(), Documents: docs, Count: len(docs)}, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	if s.ports.Query == nil {
		return nil, GetDocumentOutput{}, ErrQueryUnavailable
	}

	id := input.ID
	if id == "" && input.OriginalID != "" {
		key, err := domain.MakeSafeKey(input.OriginalID)
		if err != nil {
			return nil, GetDocumentOutput{}, err
		}
		id = key
	}
	if id == "" {
		return nil, GetDocumentOutput{}, domain.ErrInvalidInput
	}

	record, found, err := s.ports.Query.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}

	return nil, GetDocumentOutput{ID: id, Found: found, Document: record}, nil
}

// handleSafeKey handles the safe_key tool invocation.
func (s *Server) handleSafeKey(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SafeKeyInput,
) (*mcp.CallToolResult, SafeKeyOutput, error) {
	if s.ports.Keys == nil {
		return nil, SafeKeyOutput{}, ErrKeysUnavailable
	}

	key, err := s.ports.Keys.SafeKey(input.ID)
	if err != nil {
		return nil, SafeKeyOutput{}, err
	}
	return nil, SafeKeyOutput{ID: input.ID, SafeKey: key}, nil
}
