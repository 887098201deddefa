package solver

import (
	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/pipeline"
	"github.com/HendryAvila/solvy/internal/recall"
	"github.com/HendryAvila/solvy/internal/solution"
	"github.com/HendryAvila/solvy/internal/telemetry"
)

// trace keeps the run record of one Solve call in step with the pipeline.
// Trace bookkeeping never fails a run; problems are logged.
type trace struct {
	run     *pipeline.RunRecord
	route   recall.Route
	store   pipeline.Store
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

func (s *Solver) newTrace(task string) *trace {
	run := pipeline.NewRun(task)
	tr := &trace{
		run:     run,
		route:   recall.RouteNew,
		store:   s.runs,
		logger:  s.logger.With(zap.String("run", run.ID)),
		metrics: s.metrics,
	}
	tr.logger.Info("run started", zap.String("task", task))
	tr.save()
	return tr
}

func (t *trace) advance(note string) {
	stage := t.run.CurrentStage
	if err := pipeline.Advance(t.run, note); err != nil {
		t.logger.Warn("trace advance failed", zap.Error(err))
		return
	}
	t.logger.Debug("stage done", zap.String("stage", string(stage)), zap.String("note", note))
	t.save()
}

func (t *trace) skipTo(stage pipeline.Stage, note string) {
	if err := pipeline.SkipTo(t.run, stage, note); err != nil {
		t.logger.Warn("trace skip failed", zap.Error(err))
		return
	}
	t.save()
}

func (t *trace) fail(cause error) (Result, error) {
	t.logger.Error("run failed", zap.String("stage", string(t.run.CurrentStage)), zap.Error(cause))
	pipeline.Fail(t.run, cause)
	t.save()
	t.count(string(pipeline.StatusFailed))
	return Result{RunID: t.run.ID, Route: t.route}, cause
}

func (t *trace) complete(sol solution.Solution) {
	pass, fail, unknown := sol.Tally()
	out := pipeline.Outcome{
		Route:      string(t.route),
		SolutionID: sol.ID,
		Attempts:   sol.ProposalTries,
		Pass:       pass,
		Fail:       fail,
		Unknown:    unknown,
	}
	if err := pipeline.Complete(t.run, out); err != nil {
		t.logger.Warn("trace complete failed", zap.Error(err))
	}
	t.save()
	t.count(string(pipeline.StatusCompleted))
	t.logger.Info("run finished",
		zap.String("route", string(t.route)),
		zap.Int("attempts", sol.ProposalTries),
		zap.Int("pass", pass), zap.Int("fail", fail), zap.Int("unknown", unknown))
}

func (t *trace) count(status string) {
	t.metrics.Run(string(t.route), status)
}

func (t *trace) save() {
	if t.store == nil {
		return
	}
	if err := t.store.Save(t.run); err != nil {
		t.logger.Warn("saving run failed", zap.Error(err))
	}
}
