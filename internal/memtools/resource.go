package memtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/solvy/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsResourceURI addresses the memory statistics resource.
const StatsResourceURI = "solvy://memory/stats"

// StatsResource serves memory statistics as a read-only MCP resource.
type StatsResource struct {
	store *memory.Store
}

// NewStatsResource creates a StatsResource.
func NewStatsResource(store *memory.Store) *StatsResource {
	return &StatsResource{store: store}
}

// Definition returns the MCP resource definition.
func (r *StatsResource) Definition() mcp.Resource {
	return mcp.NewResource(
		StatsResourceURI,
		"Solver Memory Statistics",
		mcp.WithResourceDescription("Record counts per memory domain and embedding coverage"),
		mcp.WithMIMEType("application/json"),
	)
}

// Handle returns the current statistics as JSON.
func (r *StatsResource) Handle(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
