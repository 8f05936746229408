package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"the search query to find passages for"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Folder    string   `json:"folder,omitempty" jsonschema:"restrict results to this vault folder"`
	Threshold float64  `json:"threshold,omitempty" jsonschema:"minimum similarity score between 0 and 1"`
	Exclude   []string `json:"exclude,omitempty" jsonschema:"vault paths to leave out of the results"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
	Syncing bool                 `json:"syncing,omitempty"`
	Note    string               `json:"note,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	Section  string  `json:"section,omitempty"`
	Preview  string  `json:"preview,omitempty"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}

// ReindexInput is the input schema for the reindex_file tool.
type ReindexInput struct {
	Path string `json:"path" jsonschema:"vault-relative path of the file to reindex"`
}

// ReindexOutput is the output schema for the reindex_file tool.
type ReindexOutput struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// RemoveInput is the input schema for the remove_file tool.
type RemoveInput struct {
	Path string `json:"path" jsonschema:"vault-relative path of the file to remove from the index"`
}

// RemoveOutput is the output schema for the remove_file tool.
type RemoveOutput struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// StatusInput is the input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Available      bool   `json:"available"`
	Reconciling    bool   `json:"reconciling"`
	TotalFiles     int    `json:"total_files"`
	CompletedFiles int    `json:"completed_files"`
	Note           string `json:"note,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the indexed vault for passages similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex_file",
		Description: "Re-chunk, re-embed, and re-store one vault file immediately",
	}, s.handleReindexFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_file",
		Description: "Remove one file's entries from the index",
	}, s.handleRemoveFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report index availability and synchronisation progress",
	}, s.handleStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Limit:        input.Limit,
		Folder:       input.Folder,
		MinScore:     input.Threshold,
		ExcludePaths: input.Exclude,
	}

	results, progress, err := s.ports.Query.SearchRaw(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
		Syncing: progress.Reconciling,
		Note:    progress.Note(),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			Path:     results[i].Path,
			Title:    results[i].Title,
			Section:  results[i].Section,
			Preview:  results[i].Preview,
			Position: results[i].Position,
			Score:    results[i].Score,
		}
	}

	return nil, output, nil
}

// handleReindexFile handles the reindex_file tool invocation.
func (s *Server) handleReindexFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	if s.ports.Sync == nil {
		return nil, ReindexOutput{}, errors.New("no vault configured")
	}

	if err := s.ports.Sync.ReindexFile(ctx, input.Path); err != nil {
		return nil, ReindexOutput{}, err
	}

	return nil, ReindexOutput{Path: input.Path, Status: "reindexed"}, nil
}

// handleRemoveFile handles the remove_file tool invocation.
func (s *Server) handleRemoveFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	if s.ports.Sync == nil {
		return nil, RemoveOutput{}, errors.New("no vault configured")
	}

	if err := s.ports.Sync.RemoveFile(ctx, input.Path); err != nil {
		return nil, RemoveOutput{}, err
	}

	return nil, RemoveOutput{Path: input.Path, Status: "removed"}, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	output := StatusOutput{
		Available: s.ports.Query.Available(),
	}
	if s.ports.Sync != nil {
		progress := s.ports.Sync.Progress()
		output.Reconciling = progress.Reconciling
		output.TotalFiles = progress.TotalFiles
		output.CompletedFiles = progress.CompletedFiles
		output.Note = progress.Note()
	}
	return nil, output, nil
}
