package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docdex/internal/search"
)

// handleSearchDocuments performs semantic search over the document corpus.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", search.DefaultLimit)
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	var folder *string
	if f := request.GetString("folder", ""); f != "" {
		folder = &f
	}

	results, err := s.searcher.Search(ctx, query, folder, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The corpus may not be indexed yet. Run `docdex resync` to index it."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleIndexStatus reports index size and job queue state.
func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.jobs.GetStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("job store unavailable: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Indexed passages: %d\n", s.store.Count())
	fmt.Fprintf(&sb, "Jobs: %d pending, %d processing, %d completed, %d failed\n",
		stats.Pending, stats.Processing, stats.Completed, stats.Failed)

	if stats.Failed > 0 {
		failures, err := s.jobs.RecentFailures(ctx, 5)
		if err == nil && len(failures) > 0 {
			sb.WriteString("\nRecent failures:\n")
			for _, job := range failures {
				fmt.Fprintf(&sb, "  %s: %s\n", job.FilePath, job.Error)
			}
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults converts search results into a rich text format
// optimized for AI agent consumption.
func formatSearchResults(results []search.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "File: %s (chunk %d)\n", r.FilePath, r.ChunkIndex)
		if r.Folder != "" {
			fmt.Fprintf(&sb, "Folder: %s\n", r.Folder)
		}
		fmt.Fprintf(&sb, "Score: %.1f%%\n", r.Score*100)
		sb.WriteString("\n")
		sb.WriteString(r.ChunkText)
		sb.WriteString("\n")
	}

	return sb.String()
}
