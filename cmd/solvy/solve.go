package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	solvyserver "github.com/HendryAvila/solvy/internal/server"
	"github.com/HendryAvila/solvy/internal/solution"
	"github.com/HendryAvila/solvy/internal/solver"
	"github.com/HendryAvila/solvy/internal/telemetry"
	"github.com/spf13/cobra"
)

func newSolveCmd(g *globals) *cobra.Command {
	var (
		taskContext string
		form        string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "solve <task>",
		Short: "Solve a task and print the report",
		Long: `Solve a task end to end and print a Markdown report.

Without --context and --form both are inferred from the task. Lines in the
task that start with "assert" or "test:" are kept verbatim as tests.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			logger, err := g.logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			comps, cleanup, err := solvyserver.Build(ctx, cfg, logger, telemetry.New())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := runSolve(ctx, comps.Solver, strings.Join(args, " "), taskContext, form)
			if err != nil {
				if res.RunID != "" {
					return fmt.Errorf("run %s: %w", res.RunID, err)
				}
				return err
			}
			return printResult(cmd, res, asJSON)
		},
	}
	cmd.Flags().StringVar(&taskContext, "context", "", "subject area of the task")
	cmd.Flags().StringVar(&form, "form", "", "answer form: text or code")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

// runSolve mirrors the solve MCP tool: free text is parsed unless the
// caller supplies context or form.
func runSolve(ctx context.Context, s *solver.Solver, task, taskContext, form string) (solver.Result, error) {
	if taskContext == "" && form == "" {
		return s.Solve(ctx, task)
	}
	if form == "" {
		form = string(solution.FormText)
	}
	return s.SolveTask(ctx, task, taskContext, solution.Form(form))
}

func printResult(cmd *cobra.Command, res solver.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Report != "" {
		_, err := fmt.Fprintln(out, res.Report)
		return err
	}
	_, err := fmt.Fprintln(out, res.Solution.Solution)
	return err
}
