package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// strategy implements and runs tests for one solution form.
type strategy interface {
	// regenerate reports whether t needs a new implementation for the
	// body identified by digest.
	regenerate(t solution.Test, digest string) bool
	implement(ctx context.Context, s solution.Solution, t solution.Test) (string, error)
	run(ctx context.Context, s solution.Solution, t solution.Test) string
}

func strategyFor(f solution.Form, c llm.Completer, r Runner) strategy {
	if f == solution.FormCode {
		return codeStrategy{completer: c, runner: r}
	}
	return textStrategy{completer: c}
}

// ─── Code ───────────────────────────────────────────────────────────────

type codeStrategy struct {
	completer llm.Completer
	runner    Runner
}

// Code tests embed the candidate, so they follow every new body.
func (codeStrategy) regenerate(t solution.Test, digest string) bool {
	return t.Implementation == "" || t.ImplementedFor != digest
}

func (c codeStrategy) implement(ctx context.Context, s solution.Solution, t solution.Test) (string, error) {
	prompt := fmt.Sprintf("Task: %s\n\nCandidate code:\n%s\n\nTest: %s", s.Task, s.Solution, t.Description)
	out, err := llm.Ask(ctx, c.completer, CodeTestSystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return llm.StripFences(out), nil
}

func (c codeStrategy) run(ctx context.Context, _ solution.Solution, t solution.Test) string {
	return c.runner.Run(ctx, t.Implementation)
}

// ─── Text ───────────────────────────────────────────────────────────────

type textStrategy struct {
	completer llm.Completer
}

// Questions depend only on the description.
func (textStrategy) regenerate(t solution.Test, _ string) bool {
	return t.Implementation == ""
}

func (x textStrategy) implement(ctx context.Context, s solution.Solution, t solution.Test) (string, error) {
	prompt := fmt.Sprintf("Task: %s\n\nTest: %s", s.Task, t.Description)
	out, err := llm.Ask(ctx, x.completer, QuestionsSystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (x textStrategy) run(ctx context.Context, s solution.Solution, t solution.Test) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nAnswer under test:\n%s\n", s.Task, s.Solution)
	writeResources(&b, s)
	fmt.Fprintf(&b, "\nQuestions:\n%s", t.Implementation)

	out, err := llm.Ask(ctx, x.completer, ExamineSystemPrompt, b.String())
	if err != nil {
		return "error: " + err.Error()
	}
	return strings.TrimSpace(out)
}

func writeResources(b *strings.Builder, s solution.Solution) {
	first := true
	for _, k := range s.ResourceKeys() {
		v := s.Resources[k]
		if v == solution.NotProvided {
			continue
		}
		if first {
			b.WriteString("\nResources:\n")
			first = false
		}
		fmt.Fprintf(b, "- %s: %s\n", k, v)
	}
}
