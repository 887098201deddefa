// Package planner turns a raw request into a task with requirements, tests
// and a structure outline.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// DefaultContext is used when no context can be extracted from a request.
const DefaultContext = "General"

// Planner runs the model calls that shape a solution before proposals.
type Planner struct {
	completer llm.Completer
	logger    *zap.Logger
}

// New creates a Planner.
func New(c llm.Completer, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{completer: c, logger: logger}
}

type parsedTask struct {
	Task    string `json:"task"`
	Context string `json:"context"`
	Form    string `json:"form"`
}

// ParseTask builds an empty solution from a free-form request. When the
// model reply cannot be used the whole request becomes the task, the
// context is DefaultContext and the form is guessed from keywords.
func (p *Planner) ParseTask(ctx context.Context, request string) (solution.Solution, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return solution.Solution{}, fmt.Errorf("%w: empty request", solution.ErrContract)
	}

	out, err := llm.Ask(llm.WithPhase(ctx, "parse"), p.completer, TaskSystemPrompt, request)
	if err != nil {
		if ctx.Err() != nil {
			return solution.Solution{}, fmt.Errorf("planner: parse task: %w", err)
		}
		p.logger.Warn("task parsing failed; using heuristics", zap.Error(err))
		return fallbackTask(request), nil
	}

	var pt parsedTask
	if err := llm.ParseObject(out, &pt); err != nil || strings.TrimSpace(pt.Task) == "" {
		p.logger.Debug("unusable task parse; using heuristics", zap.String("reply", out))
		return fallbackTask(request), nil
	}
	if strings.TrimSpace(pt.Context) == "" {
		pt.Context = DefaultContext
	}
	form := solution.ParseForm(pt.Form)
	if pt.Form == "" {
		form = GuessForm(request)
	}
	return solution.New(strings.TrimSpace(pt.Task), strings.TrimSpace(pt.Context), form), nil
}

func fallbackTask(request string) solution.Solution {
	return solution.New(request, DefaultContext, GuessForm(request))
}

var codeWords = regexp.MustCompile(`(?i)\b(code|function|program|script)s?\b`)

// GuessForm returns FormCode when the request mentions code.
func GuessForm(request string) solution.Form {
	if codeWords.MatchString(request) {
		return solution.FormCode
	}
	return solution.FormText
}

// Requirements derives the requirement list. A reply that is not a JSON
// list of strings fails with llm.ErrMalformedOutput.
func (p *Planner) Requirements(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	prompt := fmt.Sprintf("Context: %s\nTask: %s", s.Context, s.Task)
	out, err := llm.Ask(llm.WithPhase(ctx, "requirements"), p.completer, RequirementsSystemPrompt, prompt)
	if err != nil {
		return s, fmt.Errorf("planner: requirements: %w", err)
	}
	reqs, err := llm.ParseStringList(out)
	if err != nil {
		return s, fmt.Errorf("planner: requirements: %w", err)
	}
	if len(reqs) == 0 {
		return s, fmt.Errorf("planner: requirements: %w: empty list", llm.ErrMalformedOutput)
	}
	p.logger.Debug("requirements derived", zap.Int("count", len(reqs)))
	return s.WithRequirements(reqs), nil
}

// Tests asks for test descriptions and appends them to s. Assertion lines
// written in the task are appended verbatim when the model left them out.
// Unusable replies add nothing.
func (p *Planner) Tests(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\nTask: %s\nRequirements:\n", s.Context, s.Task)
	for _, r := range s.Requirements {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	if len(s.Tests) > 0 {
		b.WriteString("Existing tests:\n")
		for _, t := range s.Tests {
			fmt.Fprintf(&b, "- %s\n", t.Description)
		}
	}

	out, err := llm.Ask(llm.WithPhase(ctx, "tests"), p.completer, TestsSystemPrompt, b.String())
	if err != nil {
		if ctx.Err() != nil {
			return s, fmt.Errorf("planner: tests: %w", err)
		}
		p.logger.Warn("test synthesis failed", zap.Error(err))
		out = ""
	}
	descs, perr := llm.ParseStringList(out)
	if perr != nil && out != "" {
		p.logger.Warn("unparseable test list", zap.Error(perr))
	}

	descs = appendMissing(descs, AuthorAssertions(s.Task))
	p.logger.Debug("tests synthesized", zap.Int("new", len(descs)))
	return s.AppendTests(descs), nil
}

var assertionLine = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(assert\b|test\s*:)`)

// AuthorAssertions returns the lines of task that read as test assertions.
func AuthorAssertions(task string) []string {
	var out []string
	for _, line := range strings.Split(task, "\n") {
		if assertionLine.MatchString(line) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func appendMissing(descs, literal []string) []string {
	for _, l := range literal {
		found := false
		for _, d := range descs {
			if strings.Contains(d, l) {
				found = true
				break
			}
		}
		if !found {
			descs = append(descs, l)
		}
	}
	return descs
}

// Structure drafts the ordered outline of the solution. Unusable replies
// leave the structure empty.
func (p *Planner) Structure(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\nTask: %s\nForm: %s\nRequirements:\n", s.Context, s.Task, s.Form)
	for _, r := range s.Requirements {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	out, err := llm.Ask(llm.WithPhase(ctx, "structure"), p.completer, StructureSystemPrompt, b.String())
	if err != nil {
		if ctx.Err() != nil {
			return s, fmt.Errorf("planner: structure: %w", err)
		}
		p.logger.Warn("structure drafting failed", zap.Error(err))
		return s.WithStructure(nil), nil
	}
	items, err := llm.ParseStringList(out)
	if err != nil {
		p.logger.Debug("unparseable structure", zap.Error(err))
		items = nil
	}
	return s.WithStructure(items), nil
}
