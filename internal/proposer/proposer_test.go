package proposer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/solvy/internal/llm/llmtest"
	"github.com/HendryAvila/solvy/internal/solution"
)

const marker = "solution author"

type fakeMemory struct {
	saved []solution.Solution
	err   error
}

func (m *fakeMemory) SaveSolution(_ context.Context, s solution.Solution) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, s)
	return "sol-1", nil
}

func base() solution.Solution {
	s := solution.New("geometric mean of a list", "math", solution.FormCode).
		WithRequirements([]string{"return zero for empty list"}).
		WithStructure([]string{"guard empty input"}).
		RequestResources([]string{"log rules", "missing"}).
		MergeResources(map[string]string{"log rules": "log(ab) = log a + log b"})
	return s.AppendTests([]string{"empty list returns zero", "mean of 1 and 4 is 2"})
}

func TestPropose_CountsAndPersists(t *testing.T) {
	fake := llmtest.New().On(marker, "```go\nfunc GeoMean(xs []float64) float64 { return 0 }\n```")
	mem := &fakeMemory{}
	p := New(fake, mem, nil)

	out, err := p.Propose(context.Background(), base())
	require.NoError(t, err)
	assert.Equal(t, "func GeoMean(xs []float64) float64 { return 0 }", out.Solution)
	assert.Equal(t, 1, out.ProposalTries)
	assert.Equal(t, "sol-1", out.ID)
	require.Len(t, mem.saved, 1)
}

func TestPropose_EmptyReplyKeepsBody(t *testing.T) {
	p := New(llmtest.New().On(marker, "   "), nil, nil)
	s := base().WithProposal("previous")

	out, err := p.Propose(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "previous", out.Solution)
	assert.Equal(t, 2, out.ProposalTries)
}

func TestPropose_PersistFailureIsNotFatal(t *testing.T) {
	p := New(llmtest.New().On(marker, "body"), &fakeMemory{err: errors.New("disk full")}, nil)
	out, err := p.Propose(context.Background(), base())
	require.NoError(t, err)
	assert.Equal(t, "body", out.Solution)
	assert.Empty(t, out.ID)
}

func TestPropose_CompleterError(t *testing.T) {
	fake := llmtest.New()
	fake.Strict = true
	p := New(fake, nil, nil)

	in := base()
	out, err := p.Propose(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, in, out)
}

func TestPrompt(t *testing.T) {
	s := base().WithProposal("func GeoMean(xs []float64) float64 { return 1 }")
	s.Tests[0].Result = solution.ResultFail
	s.Tests[0].CritiqueOfLastRun = "the empty list branch is missing"
	s.Tests[1].Result = solution.ResultPass
	s.Tests[1].CritiqueOfLastRun = "fine"
	s.SimilarSolutions = "func Mean() {}"

	got := Prompt(s)
	assert.Contains(t, got, "Task: geometric mean of a list")
	assert.Contains(t, got, "- return zero for empty list")
	assert.Contains(t, got, "- guard empty input")
	assert.Contains(t, got, "- log rules: log(ab) = log a + log b")
	assert.NotContains(t, got, solution.NotProvided)
	assert.Contains(t, got, "FAILED: the empty list branch is missing")
	assert.NotContains(t, got, "fine")
	assert.Contains(t, got, "Previous attempt:\nfunc GeoMean")
	assert.Contains(t, got, "Similar solutions:\nfunc Mean() {}")
	assert.Contains(t, got, "Go source code only")
}

func TestPrompt_TextGuidelines(t *testing.T) {
	got := Prompt(solution.New("what is 3 plus 2", "arithmetic", solution.FormText))
	assert.Contains(t, got, "concise text")
	assert.NotContains(t, got, "Previous attempt")
}
