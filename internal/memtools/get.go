package memtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/solvy/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// GetTool handles the mem_get MCP tool.
type GetTool struct {
	store *memory.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(store *memory.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for mem_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_get",
		mcp.WithDescription("Show one memory record in full, by the id mem_search printed."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Record id"),
		),
	)
}

// Handle processes the mem_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	rec, err := t.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("record %q not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	text := memory.Describe(memory.Hit{Record: *rec}, memory.DetailFull) +
		fmt.Sprintf("\n    created: %s", rec.CreatedAt)
	return mcp.NewToolResultText(text), nil
}
