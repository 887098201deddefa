// Package recall finds previously stored solutions that answer, or help
// answer, a new task.
package recall

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// DefaultK is the number of stored solutions considered.
const DefaultK = 3

// Memory is the slice of the memory store the recaller reads.
type Memory interface {
	FindSolutions(ctx context.Context, queryContext, request string, k int) ([]solution.Solution, error)
}

// Route says where a solution goes after recall.
type Route string

const (
	RouteRecalled Route = "recalled"
	RouteNew      Route = "new"
)

// Recaller implements direct reuse and partial reuse of stored solutions.
type Recaller struct {
	completer llm.Completer
	memory    Memory
	k         int
	logger    *zap.Logger
}

// New creates a Recaller. k <= 0 uses DefaultK.
func New(c llm.Completer, m Memory, k int, logger *zap.Logger) *Recaller {
	if k <= 0 {
		k = DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recaller{completer: c, memory: m, k: k, logger: logger}
}

// Recall looks up similar stored solutions for s, which must have no body
// yet and a task, context and requirements. When a stored solution
// satisfies every requirement and has the same form it is returned with
// this task's task, context and requirements. Otherwise the bodies of
// stored solutions judged useful are attached as SimilarSolutions.
// With no stored candidates s is returned unchanged.
func (r *Recaller) Recall(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	if err := checkRecallable(s); err != nil {
		return s, err
	}
	ctx = llm.WithPhase(ctx, "recall")

	candidates, err := r.memory.FindSolutions(ctx, s.Context, s.Task+"\n"+strings.Join(s.Requirements, "\n"), r.k)
	if err != nil {
		r.logger.Warn("memory lookup failed; continuing without recall", zap.Error(err))
		return s, nil
	}
	if len(candidates) == 0 {
		r.logger.Debug("no stored candidates")
		return s, nil
	}

	if picked, ok := r.directReuse(ctx, s, candidates); ok {
		return picked, nil
	}
	return r.partialReuse(ctx, s, candidates), nil
}

// RouteOf returns RouteRecalled when s carries a body.
func RouteOf(s solution.Solution) Route {
	if s.IsEmpty() {
		return RouteNew
	}
	return RouteRecalled
}

func checkRecallable(s solution.Solution) error {
	switch {
	case !s.IsEmpty():
		return fmt.Errorf("%w: recall needs a solution without a body", solution.ErrContract)
	case strings.TrimSpace(s.Task) == "":
		return fmt.Errorf("%w: recall needs a task", solution.ErrContract)
	case strings.TrimSpace(s.Context) == "":
		return fmt.Errorf("%w: recall needs a context", solution.ErrContract)
	case len(s.Requirements) == 0:
		return fmt.Errorf("%w: recall needs requirements", solution.ErrContract)
	}
	return nil
}

func (r *Recaller) directReuse(ctx context.Context, s solution.Solution, candidates []solution.Solution) (solution.Solution, bool) {
	var b strings.Builder
	b.WriteString("New task requirements:\n")
	writeList(&b, s.Requirements)
	b.WriteString("\nStored solutions:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. Task: %s\n   Requirements:\n", i, c.Task)
		for _, req := range c.Requirements {
			fmt.Fprintf(&b, "   - %s\n", req)
		}
	}

	out, err := llm.Ask(ctx, r.completer, UsableSystemPrompt, b.String())
	if err != nil {
		r.logger.Warn("direct reuse check failed", zap.Error(err))
		return s, false
	}
	idx, ok := llm.ParseIndex(out, len(candidates))
	if !ok {
		return s, false
	}
	picked := candidates[idx]
	if picked.IsEmpty() || picked.Form != s.Form {
		r.logger.Debug("picked candidate not reusable",
			zap.Int("index", idx), zap.String("form", string(picked.Form)))
		return s, false
	}

	reused := picked.Clone()
	reused.Task = s.Task
	reused.Context = s.Context
	reused.Requirements = append([]string(nil), s.Requirements...)
	r.logger.Info("reusing stored solution", zap.String("id", picked.ID))
	return reused, true
}

func (r *Recaller) partialReuse(ctx context.Context, s solution.Solution, candidates []solution.Solution) solution.Solution {
	var b strings.Builder
	fmt.Fprintf(&b, "New task: %s\nRequirements:\n", s.Task)
	writeList(&b, s.Requirements)
	b.WriteString("\nStored solutions:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. Task: %s\n%s\n\n", i, c.Task, c.Solution)
	}

	history := []llm.Message{llm.User(b.String())}
	reasoning, err := r.completer.Complete(ctx, PartialSystemPrompt, history)
	if err != nil {
		r.logger.Warn("partial reuse reasoning failed", zap.Error(err))
		return s
	}
	history = append(history, llm.Model(reasoning), llm.User(partialFollowUp))
	answer, err := r.completer.Complete(ctx, PartialSystemPrompt, history)
	if err != nil {
		r.logger.Warn("partial reuse selection failed", zap.Error(err))
		return s
	}

	idxs, err := llm.ParseIndexList(answer, len(candidates))
	if err != nil {
		r.logger.Debug("unparseable partial reuse answer", zap.Error(err))
		return s
	}
	var bodies []string
	for _, i := range idxs {
		if body := candidates[i].Solution; body != "" {
			bodies = append(bodies, body)
		}
	}
	if len(bodies) == 0 {
		return s
	}
	out := s.Clone()
	out.SimilarSolutions = strings.Join(bodies, ",\n")
	return out
}

func writeList(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
