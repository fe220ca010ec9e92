package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"natural language query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename"`
	MimeType   string   `json:"mime_type"`
	Similarity float64  `json:"similarity"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary,omitempty"`
}

// CreateDocumentInput is the input schema for the create_document tool.
type CreateDocumentInput struct {
	Filename string `json:"filename" jsonschema:"file name of the document"`
	Content  string `json:"content" jsonschema:"document body as text"`
	MimeType string `json:"mimeType" jsonschema:"media type, e.g. text/plain"`
}

// CreateDocumentOutput is the output schema for the create_document tool.
type CreateDocumentOutput struct {
	DocumentID   string   `json:"document_id"`
	Tags         []string `json:"tags"`
	Summary      string   `json:"summary"`
	IndexPending bool     `json:"index_pending"`
}

// DeleteDocumentInput is the input schema for the delete_document tool.
type DeleteDocumentInput struct {
	ID string `json:"id" jsonschema:"document id to delete"`
}

// DeleteDocumentOutput is the output schema for the delete_document tool.
type DeleteDocumentOutput struct {
	Success bool `json:"success"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search across stored documents, most similar first",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_document",
		Description: "Store a document, tag it and index it for search",
	}, s.handleCreateDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document and its index entry",
	}, s.handleDeleteDocument)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{Limit: input.Limit})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		var similarity float64
		if results[i].Similarity != nil {
			similarity = *results[i].Similarity
		}
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].ID,
			Filename:   results[i].Filename,
			MimeType:   results[i].MimeType,
			Similarity: similarity,
			Tags:       results[i].Tags,
			Summary:    results[i].Summary(),
		}
	}
	return nil, output, nil
}

func (s *Server) handleCreateDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateDocumentInput,
) (*mcp.CallToolResult, CreateDocumentOutput, error) {
	doc, err := s.ports.Document.Create(ctx, driving.CreateDocumentInput{
		Filename: input.Filename,
		Content:  input.Content,
		MimeType: input.MimeType,
	})
	if err != nil {
		return nil, CreateDocumentOutput{}, err
	}
	return nil, CreateDocumentOutput{
		DocumentID:   doc.ID,
		Tags:         doc.Tags,
		Summary:      doc.Summary(),
		IndexPending: doc.IndexPending,
	}, nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if err := s.ports.Document.Delete(ctx, input.ID); err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	return nil, DeleteDocumentOutput{Success: true}, nil
}
