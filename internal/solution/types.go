// Package solution defines the records that flow through the solving
// pipeline: the Solution itself, its Tests, and the Resources gathered
// to support it.
//
// Records are values. Every stage receives a Solution and returns a new
// one built with the transform methods in solution.go, so a caller's
// copy is never modified behind its back.
package solution

import (
	"errors"
	"fmt"
	"strings"
)

// NotProvided marks a resource key that has been requested but not resolved.
const NotProvided = "Not provided"

// ErrContract is returned when a stage receives a record that violates its
// preconditions. Callers treat it as fatal.
var ErrContract = errors.New("solution: contract violation")

// --- Form enum ---

// Form is the kind of answer a task expects.
type Form string

const (
	FormText Form = "text"
	FormCode Form = "code"
)

var validForms = map[Form]bool{
	FormText: true,
	FormCode: true,
}

// ValidateForm returns an error if the form is not recognized.
func ValidateForm(f Form) error {
	if !validForms[f] {
		return fmt.Errorf("invalid form %q: must be one of: text, code", f)
	}
	return nil
}

// ParseForm classifies free model output. Anything mentioning "code" is
// code, everything else is text.
func ParseForm(s string) Form {
	if strings.Contains(strings.ToLower(s), "code") {
		return FormCode
	}
	return FormText
}

// --- Result enum ---

// Result is the verdict of the last critique of a test.
type Result string

const (
	ResultPass    Result = "pass"
	ResultFail    Result = "fail"
	ResultUnknown Result = "unknown"
)

// --- Records ---

// Test is one verifiable check attached to a Solution.
//
// ImplementedFor and RunFor hold the digest of the solution body the
// implementation was written against and the body the last run exercised.
// A test whose RunFor differs from the current body is stale.
type Test struct {
	Description       string `json:"description"`
	Implementation    string `json:"implementation"`
	Form              Form   `json:"form"`
	LastOutput        string `json:"last_output"`
	CritiqueOfLastRun string `json:"critique_of_last_run"`
	Result            Result `json:"result"`
	ImplementedFor    string `json:"implemented_for,omitempty"`
	RunFor            string `json:"run_for,omitempty"`
}

// NewTest returns an unimplemented test with an unknown result.
func NewTest(description string, form Form) Test {
	return Test{Description: description, Form: form, Result: ResultUnknown}
}

// Solution is the evolving record of one task.
type Solution struct {
	ID               string            `json:"id,omitempty"`
	Task             string            `json:"task"`
	Context          string            `json:"context"`
	Requirements     []string          `json:"requirements"`
	Structure        []string          `json:"structure"`
	Resources        map[string]string `json:"resources"`
	Tests            []Test            `json:"tests"`
	Form             Form              `json:"form"`
	Solution         string            `json:"solution"`
	ProposalTries    int               `json:"proposal_tries"`
	SimilarSolutions string            `json:"similar_solutions,omitempty"`
}

// Resource is a piece of supporting knowledge, persisted once and never
// modified afterwards.
type Resource struct {
	ID      string `json:"id,omitempty"`
	Form    Form   `json:"form"`
	Context string `json:"context"`
	Request string `json:"request"`
	Content string `json:"content"`
	Origin  string `json:"origin"`
}

// Resource origins.
const (
	OriginMemory     = "memory"
	OriginWikipedia  = "wikipedia"
	OriginGenerative = "generative"
)
