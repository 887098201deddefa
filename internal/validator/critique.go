package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

type verdict struct {
	Verdict  string `json:"verdict"`
	Critique string `json:"critique"`
}

// critique judges one run. Failures degrade to an unknown result with a
// critique that says why.
func (v *Validator) critique(ctx context.Context, s solution.Solution, t solution.Test) (solution.Result, string) {
	if t.Implementation == "" {
		return solution.ResultUnknown, "test could not be implemented: " + t.LastOutput
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nSolution:\n%s\n", s.Task, s.Solution)
	if s.Form == solution.FormText {
		writeResources(&b, s)
	}
	fmt.Fprintf(&b, "\nTest: %s\n\nTest implementation:\n%s\n\nTest output:\n%s", t.Description, t.Implementation, t.LastOutput)

	out, err := llm.Ask(ctx, v.completer, CritiqueSystemPrompt, b.String())
	if err != nil {
		return solution.ResultUnknown, "critique unavailable: " + err.Error()
	}
	return ParseVerdict(out)
}

// ParseVerdict reads a critique reply. A JSON verdict is preferred; the
// TEST_PASSED and TEST_FAILED markers are the fallback. Replies with both
// markers or neither are unknown. The returned critique is never empty.
func ParseVerdict(reply string) (solution.Result, string) {
	var vd verdict
	if err := llm.ParseObject(reply, &vd); err == nil {
		text := strings.TrimSpace(vd.Critique)
		if text == "" {
			text = "no critique given"
		}
		switch strings.ToLower(strings.TrimSpace(vd.Verdict)) {
		case "pass", "passed":
			return solution.ResultPass, text
		case "fail", "failed":
			return solution.ResultFail, text
		}
	}

	passed := strings.Contains(reply, markerPassed)
	failed := strings.Contains(reply, markerFailed)
	text := strings.TrimSpace(strings.NewReplacer(markerPassed, "", markerFailed, "").Replace(reply))
	if text == "" {
		text = "no critique given"
	}
	switch {
	case passed && !failed:
		return solution.ResultPass, text
	case failed && !passed:
		return solution.ResultFail, text
	default:
		return solution.ResultUnknown, text
	}
}
