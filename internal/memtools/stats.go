package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/solvy/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	store *memory.Store
}

// NewStatsTool creates a StatsTool with the given memory store.
func NewStatsTool(store *memory.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription(
			"Show memory statistics: stored solutions and resources per domain, and how many carry embeddings.",
		),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}
	return mcp.NewToolResultText(FormatStats(stats)), nil
}

// FormatStats renders stats as Markdown.
func FormatStats(stats *memory.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Memory Statistics\n\n")
	fmt.Fprintf(&sb, "- **Records**: %d\n", stats.TotalRecords)
	fmt.Fprintf(&sb, "- **With embeddings**: %d\n", stats.EmbeddedRecords)
	if stats.Embedder != "" {
		fmt.Fprintf(&sb, "- **Embedder**: %s\n", stats.Embedder)
	} else {
		sb.WriteString("- **Embedder**: none (keyword ranking)\n")
	}
	for _, d := range stats.Domains {
		fmt.Fprintf(&sb, "- **%s**: %d\n", d.Domain, d.Count)
	}
	return sb.String()
}
