package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HendryAvila/solvy/internal/solution"
	"github.com/HendryAvila/solvy/internal/solver"
	"github.com/mark3labs/mcp-go/mcp"
)

// Solver is what the solve tool needs from the pipeline.
type Solver interface {
	Solve(ctx context.Context, request string) (solver.Result, error)
	SolveTask(ctx context.Context, task, taskContext string, form solution.Form) (solver.Result, error)
}

// SolveTool handles the solve MCP tool.
type SolveTool struct {
	solver Solver
}

// NewSolveTool creates a SolveTool.
func NewSolveTool(s Solver) *SolveTool {
	return &SolveTool{solver: s}
}

// Definition returns the MCP tool definition for registration.
func (t *SolveTool) Definition() mcp.Tool {
	return mcp.NewTool("solve",
		mcp.WithDescription(
			"Solve a task end to end. The solver derives requirements and tests, reuses "+
				"past solutions when possible, gathers background resources, proposes an answer "+
				"and retries while tests fail. Returns a Markdown report with the answer and "+
				"the verdict of every test.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("The task, in plain language. Test assertions written in it are kept verbatim."),
		),
		mcp.WithString("context",
			mcp.Description("Subject area. When omitted together with form, both are inferred from the task."),
		),
		mcp.WithString("form",
			mcp.Description("Expected answer form"),
			mcp.Enum(string(solution.FormText), string(solution.FormCode)),
		),
		mcp.WithString("format",
			mcp.Description("Output format: report (default) or json"),
			mcp.Enum("report", "json"),
		),
	)
}

// Handle processes the solve tool call.
func (t *SolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	taskContext := req.GetString("context", "")
	form := req.GetString("form", "")
	format := req.GetString("format", "report")

	var (
		res solver.Result
		err error
	)
	if form == "" && taskContext == "" {
		res, err = t.solver.Solve(ctx, task)
	} else {
		if form == "" {
			form = string(solution.FormText)
		}
		res, err = t.solver.SolveTask(ctx, task, taskContext, solution.Form(form))
	}
	if err != nil {
		if errors.Is(err, solution.ErrContract) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		msg := fmt.Sprintf("solve failed: %v", err)
		if res.RunID != "" {
			msg += fmt.Sprintf("\nInspect the run with `solve_status` run_id=%q.", res.RunID)
		}
		return mcp.NewToolResultError(msg), nil
	}

	if format == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling result: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	if res.Report != "" {
		return mcp.NewToolResultText(res.Report), nil
	}
	return mcp.NewToolResultText(res.Solution.Solution), nil
}
