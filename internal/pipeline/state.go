package pipeline

import "fmt"

// --- State machine for solver runs ---

// CurrentStageIndex returns the position of the current stage, or -1.
func CurrentStageIndex(run *RunRecord) int {
	for i, entry := range run.Stages {
		if entry.Name == run.CurrentStage {
			return i
		}
	}
	return -1
}

// IsLastStage reports whether the run is at its final stage.
func IsLastStage(run *RunRecord) bool {
	idx := CurrentStageIndex(run)
	return idx >= 0 && idx == len(run.Stages)-1
}

// CanAdvance checks whether the run can move past the current stage.
func CanAdvance(run *RunRecord) error {
	if run.Status != StatusRunning {
		return fmt.Errorf("run %q is not running (status: %s)", run.ID, run.Status)
	}
	idx := CurrentStageIndex(run)
	if idx < 0 {
		return fmt.Errorf("unknown current stage %q in run %q", run.CurrentStage, run.ID)
	}
	if idx >= len(run.Stages)-1 {
		return fmt.Errorf("already at the final stage %q in run %q", run.CurrentStage, run.ID)
	}
	return nil
}

// Advance completes the current stage and starts the next one.
func Advance(run *RunRecord, note string) error {
	idx := CurrentStageIndex(run)
	if idx < 0 || idx+1 >= len(run.Stages) {
		return CanAdvance(run)
	}
	return SkipTo(run, run.Stages[idx+1].Name, note)
}

// SkipTo completes the current stage, marks every stage before target as
// skipped and starts target. Only forward moves are allowed.
func SkipTo(run *RunRecord, target Stage, note string) error {
	if err := CanAdvance(run); err != nil {
		return err
	}
	idx := CurrentStageIndex(run)
	tIdx := -1
	for i, entry := range run.Stages {
		if entry.Name == target {
			tIdx = i
			break
		}
	}
	if tIdx <= idx {
		return fmt.Errorf("cannot move run %q from %q to %q", run.ID, run.CurrentStage, target)
	}

	now := timestamp()
	run.Stages[idx].Status = StageCompleted
	run.Stages[idx].CompletedAt = now
	if note != "" {
		run.Stages[idx].Note = note
	}
	for i := idx + 1; i < tIdx; i++ {
		run.Stages[i].Status = StageSkipped
	}
	run.Stages[tIdx].Status = StageInProgress
	run.Stages[tIdx].StartedAt = now
	run.CurrentStage = target
	run.UpdatedAt = now
	return nil
}

// Fail marks the current stage and the run as failed.
func Fail(run *RunRecord, cause error) {
	now := timestamp()
	if idx := CurrentStageIndex(run); idx >= 0 {
		run.Stages[idx].Status = StageFailed
		run.Stages[idx].CompletedAt = now
	}
	run.Status = StatusFailed
	if cause != nil {
		run.Error = cause.Error()
	}
	run.UpdatedAt = now
}

// Complete finishes a run that reached its final stage.
func Complete(run *RunRecord, outcome Outcome) error {
	if run.Status != StatusRunning {
		return fmt.Errorf("run %q is not running (status: %s)", run.ID, run.Status)
	}
	if !IsLastStage(run) {
		return fmt.Errorf("cannot complete run %q: not at the final stage (current: %s)", run.ID, run.CurrentStage)
	}
	now := timestamp()
	idx := CurrentStageIndex(run)
	run.Stages[idx].Status = StageCompleted
	run.Stages[idx].CompletedAt = now
	run.Status = StatusCompleted
	run.Outcome = outcome
	run.UpdatedAt = now
	return nil
}
