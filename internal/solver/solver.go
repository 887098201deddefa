// Package solver runs the full pipeline for one task: parse, requirements,
// recall, tests, structure, resources, propose/validate iterations and the
// final report.
package solver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/iteration"
	"github.com/HendryAvila/solvy/internal/knowledge"
	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/pipeline"
	"github.com/HendryAvila/solvy/internal/planner"
	"github.com/HendryAvila/solvy/internal/proposer"
	"github.com/HendryAvila/solvy/internal/recall"
	"github.com/HendryAvila/solvy/internal/resources"
	"github.com/HendryAvila/solvy/internal/solution"
	"github.com/HendryAvila/solvy/internal/telemetry"
	"github.com/HendryAvila/solvy/internal/templates"
	"github.com/HendryAvila/solvy/internal/validator"
)

// Memory is everything the pipeline stores and recalls.
type Memory interface {
	recall.Memory
	resources.Memory
	proposer.Memory
}

// Deps are the collaborators of a Solver. Completer, Memory and Runner are
// required.
type Deps struct {
	Completer llm.Completer
	Memory    Memory
	Runner    validator.Runner
	// Fetcher supplies new knowledge; nil uses the completer.
	Fetcher knowledge.Fetcher
	// Fallback is tried when Fetcher finds nothing.
	Fallback knowledge.Fetcher
	Runs     pipeline.Store
	Renderer templates.Renderer
	Metrics  *telemetry.Metrics
	Logger   *zap.Logger
}

// Options tunes the pipeline.
type Options struct {
	MaxAttempts     int
	RecallK         int
	ResourceK       int
	ResourceWorkers int
}

// Result is the outcome of one run.
type Result struct {
	RunID    string            `json:"run_id"`
	Route    recall.Route      `json:"route"`
	Solution solution.Solution `json:"solution"`
	Report   string            `json:"report,omitempty"`
}

// Solver wires the pipeline stages together.
type Solver struct {
	planner    *planner.Planner
	recaller   *recall.Recaller
	resources  *resources.Manager
	controller *iteration.Controller
	runs       pipeline.Store
	renderer   templates.Renderer
	metrics    *telemetry.Metrics
	logger     *zap.Logger
}

// New builds a Solver from its collaborators.
func New(d Deps, o Options) (*Solver, error) {
	switch {
	case d.Completer == nil:
		return nil, errors.New("solver: completer is required")
	case d.Memory == nil:
		return nil, errors.New("solver: memory is required")
	case d.Runner == nil:
		return nil, errors.New("solver: runner is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := d.Metrics

	resOpts := []resources.Option{
		resources.WithLogger(logger.Named("resources")),
		resources.WithOutcomeHook(func(o resources.Outcome) { m.Resource(string(o)) }),
	}
	if d.Fallback != nil {
		resOpts = append(resOpts, resources.WithFallback(d.Fallback))
	}

	prop := countingProposer{
		inner:   proposer.New(d.Completer, d.Memory, logger.Named("proposer")),
		metrics: m,
	}
	val := validator.New(d.Completer, d.Runner,
		validator.WithLogger(logger.Named("validator")),
		validator.WithVerdictHook(func(r solution.Result) { m.Verdict(string(r)) }),
	)

	return &Solver{
		planner:  planner.New(d.Completer, logger.Named("planner")),
		recaller: recall.New(d.Completer, d.Memory, o.RecallK, logger.Named("recall")),
		resources: resources.New(d.Completer, d.Memory, d.Fetcher,
			resources.Options{K: o.ResourceK, Workers: o.ResourceWorkers}, resOpts...),
		controller: iteration.New(prop, val, o.MaxAttempts, logger.Named("iteration")),
		runs:       d.Runs,
		renderer:   d.Renderer,
		metrics:    m,
		logger:     logger,
	}, nil
}

// Solve parses a free-form request and runs the pipeline on it.
func (s *Solver) Solve(ctx context.Context, request string) (Result, error) {
	tr := s.newTrace(request)
	sol, err := s.planner.ParseTask(ctx, request)
	if err != nil {
		return tr.fail(err)
	}
	return s.run(ctx, tr, sol, "form="+string(sol.Form))
}

// SolveTask runs the pipeline on a task whose context and form are known.
func (s *Solver) SolveTask(ctx context.Context, task, taskContext string, form solution.Form) (Result, error) {
	tr := s.newTrace(task)
	if err := solution.ValidateForm(form); err != nil {
		return tr.fail(fmt.Errorf("%w: %v", solution.ErrContract, err))
	}
	if taskContext == "" {
		taskContext = planner.DefaultContext
	}
	return s.run(ctx, tr, solution.New(task, taskContext, form), "provided")
}

func (s *Solver) run(ctx context.Context, tr *trace, sol solution.Solution, parseNote string) (Result, error) {
	tr.advance(parseNote)

	sol, err := s.planner.Requirements(ctx, sol)
	if err != nil {
		return tr.fail(err)
	}
	tr.advance(fmt.Sprintf("%d requirements", len(sol.Requirements)))

	sol, err = s.recaller.Recall(ctx, sol)
	if err != nil {
		return tr.fail(err)
	}
	route := recall.RouteOf(sol)
	tr.route = route
	if route == recall.RouteRecalled {
		tr.skipTo(pipeline.StageOutput, "recalled")
		return s.finish(tr, sol)
	}
	tr.advance("new")

	if sol, err = s.planner.Tests(ctx, sol); err != nil {
		return tr.fail(err)
	}
	tr.advance(fmt.Sprintf("%d tests", len(sol.Tests)))

	if sol, err = s.planner.Structure(ctx, sol); err != nil {
		return tr.fail(err)
	}
	tr.advance(fmt.Sprintf("%d steps", len(sol.Structure)))

	if sol, err = s.resources.Resolve(ctx, sol); err != nil {
		return tr.fail(err)
	}
	tr.advance(fmt.Sprintf("%d resources, %d unresolved", len(sol.Resources), len(sol.PendingResources())))

	if sol, err = s.controller.Iterate(ctx, sol); err != nil {
		return tr.fail(err)
	}
	pass, fail, unknown := sol.Tally()
	tr.advance(fmt.Sprintf("%d attempts: %d pass, %d fail, %d unknown", sol.ProposalTries, pass, fail, unknown))

	return s.finish(tr, sol)
}

func (s *Solver) finish(tr *trace, sol solution.Solution) (Result, error) {
	res := Result{RunID: tr.run.ID, Route: tr.route, Solution: sol}
	if s.renderer != nil {
		data := templates.NewReportData(tr.run.ID, string(tr.route), s.controller.MaxAttempts(), sol)
		report, err := s.renderer.Render(templates.Report, data)
		if err != nil {
			s.logger.Warn("rendering report failed", zap.Error(err))
		}
		res.Report = report
	}
	tr.complete(sol)
	return res, nil
}

// countingProposer counts proposals for metrics.
type countingProposer struct {
	inner   iteration.Proposer
	metrics *telemetry.Metrics
}

func (p countingProposer) Propose(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	out, err := p.inner.Propose(ctx, s)
	if err == nil {
		p.metrics.Proposal()
	}
	return out, err
}
