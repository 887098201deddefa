// Package pipeline records the progress of solver runs.
//
// Every run walks a fixed sequence of stages. A RunRecord tracks which
// stage is current and when each one started and finished, and is
// persisted as run.json so runs can be inspected after the fact.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"
)

// --- Stage enum ---

// Stage is one step of a solver run.
type Stage string

const (
	StageParse        Stage = "parse"
	StageRequirements Stage = "requirements"
	StageRecall       Stage = "recall"
	StageTests        Stage = "tests"
	StageStructure    Stage = "structure"
	StageResources    Stage = "resources"
	StageIterate      Stage = "iterate"
	StageOutput       Stage = "output"
)

// StageOrder is the sequence every run follows.
var StageOrder = []Stage{
	StageParse,
	StageRequirements,
	StageRecall,
	StageTests,
	StageStructure,
	StageResources,
	StageIterate,
	StageOutput,
}

// ValidateStage returns an error if the stage is not recognized.
func ValidateStage(s Stage) error {
	for _, st := range StageOrder {
		if st == s {
			return nil
		}
	}
	return fmt.Errorf("invalid stage %q", s)
}

// --- Status enums ---

// StageStatus is the state of one stage entry.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageSkipped    StageStatus = "skipped"
	StageFailed     StageStatus = "failed"
)

// RunStatus is the overall state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// --- Core data structures ---

// StageEntry tracks one stage within a run.
type StageEntry struct {
	Name        Stage       `json:"name"`
	Status      StageStatus `json:"status"`
	StartedAt   string      `json:"started_at,omitempty"`
	CompletedAt string      `json:"completed_at,omitempty"`
	Note        string      `json:"note,omitempty"`
}

// Outcome summarizes the solution a run produced.
type Outcome struct {
	Route      string `json:"route,omitempty"`
	SolutionID string `json:"solution_id,omitempty"`
	Attempts   int    `json:"attempts"`
	Pass       int    `json:"pass"`
	Fail       int    `json:"fail"`
	Unknown    int    `json:"unknown"`
}

// RunRecord is the root structure of a run, persisted as run.json.
type RunRecord struct {
	ID           string       `json:"id"`
	Task         string       `json:"task"`
	Stages       []StageEntry `json:"stages"`
	CurrentStage Stage        `json:"current_stage"`
	Status       RunStatus    `json:"status"`
	Error        string       `json:"error,omitempty"`
	Outcome      Outcome      `json:"outcome"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

// NewRun starts a run at the first stage.
func NewRun(task string) *RunRecord {
	now := timestamp()
	stages := make([]StageEntry, len(StageOrder))
	for i, s := range StageOrder {
		stages[i] = StageEntry{Name: s, Status: StagePending}
	}
	stages[0].Status = StageInProgress
	stages[0].StartedAt = now
	return &RunRecord{
		ID:           uuid.NewString(),
		Task:         task,
		Stages:       stages,
		CurrentStage: StageOrder[0],
		Status:       StatusRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func timestamp() string {
	return timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
}
