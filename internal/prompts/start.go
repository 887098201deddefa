// Package prompts implements MCP prompt handlers for the solver.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the solve-start MCP prompt.
// It guides the AI through handing a task to the solver and reading the
// result.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("solve-start",
		mcp.WithPromptDescription(
			"Solve a task with the iterative solver: it derives requirements and tests, "+
				"gathers resources, proposes an answer and retries until the tests pass.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What should be solved"),
		),
		mcp.WithArgument("form",
			mcp.ArgumentDescription("Expected answer: 'code' (a Go program) or 'text'. Default: inferred from the task"),
		),
	)
}

// Handle processes the solve-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var task, form string
	if args := req.Params.Arguments; args != nil {
		task = strings.TrimSpace(args["task"])
		form = strings.TrimSpace(args["form"])
	}

	step1 := "Ask me what task I want solved, then run `solve` with it"
	if task != "" {
		step1 = fmt.Sprintf("Run `solve` with task=%q", task)
	}
	if form != "" {
		step1 += fmt.Sprintf(" and form=%q", form)
	}

	description := "Solve a task"
	if task != "" {
		description = fmt.Sprintf("Solve: %s", task)
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want the solver to work on a task.\n\n" +
						"Please:\n" +
						"1. " + step1 + "\n" +
						"2. Show me the answer and the verdict table from the report\n" +
						"3. If any test failed or is unknown, explain the critique in plain words\n" +
						"4. Use `solve_status` with the run id if I ask how the run went\n",
				),
			},
		},
	}, nil
}
