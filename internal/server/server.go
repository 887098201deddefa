// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on
// abstractions. No solving logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/HendryAvila/solvy/internal/config"
	"github.com/HendryAvila/solvy/internal/memtools"
	"github.com/HendryAvila/solvy/internal/prompts"
	"github.com/HendryAvila/solvy/internal/telemetry"
	"github.com/HendryAvila/solvy/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the memory store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *telemetry.Metrics) (*server.MCPServer, func(), error) {
	comps, cleanup, err := Build(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, noop, fmt.Errorf("building components: %w", err)
	}
	return Register(comps), cleanup, nil
}

// Register creates the MCP server around already built components.
func Register(c *Components) *server.MCPServer {
	s := server.NewMCPServer(
		"solvy",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Solver tools ---

	solveTool := tools.NewSolveTool(c.Solver)
	s.AddTool(solveTool.Definition(), solveTool.Handle)

	statusTool := tools.NewSolveStatusTool(c.Runs, c.Renderer)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Memory inspection ---

	searchTool := memtools.NewSearchTool(c.Memory)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	getTool := memtools.NewGetTool(c.Memory)
	s.AddTool(getTool.Definition(), getTool.Handle)

	statsTool := memtools.NewStatsTool(c.Memory)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	// --- Resources ---

	statsResource := memtools.NewStatsResource(c.Memory)
	s.AddResource(statsResource.Definition(), statsResource.Handle)

	return s
}

// noop is a no-op cleanup function returned when construction fails.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use solvy effectively.
func serverInstructions() string {
	return `You have access to solvy, an iterative task solver.

## WHEN TO USE solvy

Hand a task to the ` + "`solve`" + ` tool when the user wants an answer that can be
checked: a Go function with stated behavior, a factual explanation with
clear criteria, a calculation. solvy derives requirements and tests from
the task, reuses earlier solutions from its memory, gathers background
resources, proposes an answer and retries while tests fail.

Do not use it for open conversation or for editing files in the workspace.

## HOW TO CALL solve

- Pass the task in plain language as ` + "`task`" + `.
- Write checks you care about as lines starting with "assert" or "test:".
  They are kept verbatim as tests.
- Set ` + "`form`" + ` to "code" when the answer must be a Go program, "text"
  otherwise. Leave both ` + "`form`" + ` and ` + "`context`" + ` empty to let solvy infer them.
- Use ` + "`format`" + `="json" when you need the full record, including every
  test implementation and critique.

## READING THE RESULT

The report lists every test with its verdict:
- pass: the answer satisfied the test
- fail: it did not; the critique says why
- unknown: the test could not be run or judged

solvy stops after a bounded number of attempts. When tests still fail,
show the critiques to the user instead of retrying blindly.

## INSPECTING RUNS AND MEMORY

- ` + "`solve_status`" + ` lists recent runs, or shows every stage of one run.
- ` + "`mem_search`" + ` searches stored solutions and resources.
- ` + "`mem_get`" + ` shows one stored record in full.
- ` + "`mem_stats`" + ` reports record counts per domain.
`
}
