package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/solvy/internal/pipeline"
	"github.com/HendryAvila/solvy/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// SolveStatusTool handles the solve_status MCP tool.
// It shows one run in detail or lists recent runs.
type SolveStatusTool struct {
	runs     pipeline.Store
	renderer templates.Renderer
}

// NewSolveStatusTool creates a SolveStatusTool.
func NewSolveStatusTool(runs pipeline.Store, renderer templates.Renderer) *SolveStatusTool {
	return &SolveStatusTool{runs: runs, renderer: renderer}
}

// Definition returns the MCP tool definition for registration.
func (t *SolveStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("solve_status",
		mcp.WithDescription(
			"Show the progress of solver runs. With `run_id`, shows every stage of that run "+
				"with timestamps and notes. Without it, lists recent runs.",
		),
		mcp.WithString("run_id",
			mcp.Description("Specific run to inspect. If omitted, lists recent runs."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max runs to list (default: 10)"),
		),
	)
}

// Handle processes the solve_status tool call.
func (t *SolveStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("run_id", ""); id != "" {
		run, err := t.runs.Load(id)
		if err != nil {
			if errors.Is(err, pipeline.ErrRunNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("Run %q not found.", id)), nil
			}
			return nil, fmt.Errorf("loading run: %w", err)
		}
		return mcp.NewToolResultText(FormatRun(run)), nil
	}

	runs, err := t.runs.List()
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	if limit := intArg(req, "limit", 10); limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	text, err := t.renderer.Render(templates.Runs, RunsData(runs))
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}

// RunsData converts run records for the Runs template.
func RunsData(runs []pipeline.RunRecord) templates.RunsData {
	var d templates.RunsData
	for _, r := range runs {
		d.Runs = append(d.Runs, templates.RunRow{
			ID:        r.ID,
			Task:      r.Task,
			Status:    string(r.Status),
			Stage:     string(r.CurrentStage),
			Attempts:  r.Outcome.Attempts,
			Pass:      r.Outcome.Pass,
			Fail:      r.Outcome.Fail,
			CreatedAt: r.CreatedAt,
		})
	}
	return d
}

// FormatRun renders one run with its stage progress.
func FormatRun(run *pipeline.RunRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run `%s`\n\n", run.ID)
	fmt.Fprintf(&sb, "- **Task:** %s\n", run.Task)
	fmt.Fprintf(&sb, "- **Status:** %s\n", run.Status)
	fmt.Fprintf(&sb, "- **Current stage:** %s\n", run.CurrentStage)
	if run.Error != "" {
		fmt.Fprintf(&sb, "- **Error:** %s\n", run.Error)
	}
	if run.Status == pipeline.StatusCompleted {
		o := run.Outcome
		fmt.Fprintf(&sb, "- **Outcome:** %s route, %d attempts, %d pass / %d fail / %d unknown\n",
			o.Route, o.Attempts, o.Pass, o.Fail, o.Unknown)
	}

	sb.WriteString("\n## Stages\n\n")
	for _, st := range run.Stages {
		icon := "⬜"
		switch st.Status {
		case pipeline.StageCompleted:
			icon = "✅"
		case pipeline.StageInProgress:
			icon = "🔄"
		case pipeline.StageSkipped:
			icon = "⏭️"
		case pipeline.StageFailed:
			icon = "❌"
		}
		fmt.Fprintf(&sb, "%s **%s** (%s)", icon, st.Name, st.Status)
		if st.Note != "" {
			fmt.Fprintf(&sb, ": %s", st.Note)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
