// Package proposer asks the model for a candidate solution body.
package proposer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// SystemPrompt frames the proposal call.
const SystemPrompt = `You are a solution author. Write the complete answer to the task using
the context, structure, resources and test feedback provided. When earlier
tests failed, fix every problem their critiques describe.`

const codeGuidelines = `Answer with Go source code only. Put helper functions first and the main
entry function last. Do not write tests and do not add a main function.`

const textGuidelines = `Answer with concise text that directly addresses the task.`

// Memory persists proposals.
type Memory interface {
	SaveSolution(ctx context.Context, s solution.Solution) (string, error)
}

// Proposer produces new candidate bodies.
type Proposer struct {
	completer llm.Completer
	memory    Memory
	logger    *zap.Logger
}

// New creates a Proposer. A nil memory skips persistence.
func New(c llm.Completer, m Memory, logger *zap.Logger) *Proposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proposer{completer: c, memory: m, logger: logger}
}

// Propose returns s with a new body and one more attempt counted. An
// empty reply keeps the previous body. The result is stored in memory;
// storage failures are logged only.
func (p *Proposer) Propose(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	out, err := llm.Ask(llm.WithPhase(ctx, "propose"), p.completer, SystemPrompt, Prompt(s))
	if err != nil {
		return s, fmt.Errorf("proposer: propose: %w", err)
	}
	body := strings.TrimSpace(out)
	if s.Form == solution.FormCode {
		body = llm.StripFences(body)
	}
	if body == "" {
		p.logger.Warn("empty proposal; keeping previous body", zap.Int("attempt", s.ProposalTries+1))
	}

	next := s.WithProposal(body)
	p.logger.Info("proposal ready", zap.Int("attempt", next.ProposalTries), zap.String("digest", next.Digest()))

	if p.memory != nil && !next.IsEmpty() {
		id, err := p.memory.SaveSolution(ctx, next)
		if err != nil {
			p.logger.Warn("saving proposal failed", zap.Error(err))
		} else {
			next.ID = id
		}
	}
	return next, nil
}

// Prompt assembles everything known about s for the proposal call.
func Prompt(s solution.Solution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\nTask: %s\n", s.Context, s.Task)

	section(&b, "Requirements", s.Requirements)
	section(&b, "Structure", s.Structure)

	var res []string
	for _, k := range s.ResourceKeys() {
		if v := s.Resources[k]; v != solution.NotProvided {
			res = append(res, fmt.Sprintf("%s: %s", k, v))
		}
	}
	section(&b, "Resources", res)

	var tests []string
	for _, t := range s.Tests {
		line := t.Description
		if t.Result == solution.ResultFail && t.CritiqueOfLastRun != "" {
			line += "\n  FAILED: " + t.CritiqueOfLastRun
		}
		tests = append(tests, line)
	}
	section(&b, "Tests", tests)

	if s.Solution != "" {
		fmt.Fprintf(&b, "\nPrevious attempt:\n%s\n", s.Solution)
	}
	if s.SimilarSolutions != "" {
		fmt.Fprintf(&b, "\nSimilar solutions:\n%s\n", s.SimilarSolutions)
	}

	b.WriteString("\n")
	if s.Form == solution.FormCode {
		b.WriteString(codeGuidelines)
	} else {
		b.WriteString(textGuidelines)
	}
	return b.String()
}

func section(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
