package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/solvy/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// searchPool is how many hits are fetched to tell the caller how many exist.
const searchPool = 20

// SearchTool handles the mem_search MCP tool.
type SearchTool struct {
	store *memory.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *memory.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for mem_search.
func (t *SearchTool) Definition() mcp.Tool {
	domains := make([]string, 0, len(memory.Domains()))
	for _, d := range memory.Domains() {
		domains = append(domains, string(d))
	}
	return mcp.NewTool("mem_search",
		mcp.WithDescription(
			"Search the solver's memory of past solutions and gathered resources. "+
				"Use this to see what the solver can reuse for a task.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, natural language or keywords"),
		),
		mcp.WithString("domain",
			mcp.Description("Which memory to search (default: solutions)"),
			mcp.Enum(domains...),
		),
		mcp.WithString("context",
			mcp.Description("Optional subject area to narrow the search"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 5, max: 20)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("How much of each record to show (default: standard)"),
			mcp.Enum(memory.DetailLevelValues()...),
		),
	)
}

// Handle processes the mem_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	domain := memory.Domain(req.GetString("domain", string(memory.DomainSolutions)))
	if err := memory.ValidateDomain(domain); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := min(max(intArg(req, "limit", 5), 1), searchPool)
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	hits, err := t.store.Query(ctx, domain, req.GetString("context", ""), query, searchPool)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No records found matching your query."), nil
	}

	total := len(hits)
	if total > limit {
		hits = hits[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d records in %s:\n\n", total, domain)
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, memory.Describe(h, level))
	}
	b.WriteString(memory.NavigationHint(len(hits), total, "Raise 'limit' to see more."))
	b.WriteString(memory.TokenFooter(memory.EstimateTokens(b.String())))

	return mcp.NewToolResultText(b.String()), nil
}
