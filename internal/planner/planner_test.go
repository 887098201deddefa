package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/llm/llmtest"
	"github.com/HendryAvila/solvy/internal/solution"
)

const (
	taskMarker      = "task intake assistant"
	reqMarker       = "requirements analyst"
	testsMarker     = "test designer"
	structureMarker = "solution planner"
)

func TestParseTask(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		request string
		want    solution.Solution
	}{
		{
			name:    "json reply",
			reply:   "```json\n{\"task\": \"Sum a list\", \"context\": \"math\", \"form\": \"code\"}\n```",
			request: "write me something that sums a list",
			want:    solution.New("Sum a list", "math", solution.FormCode),
		},
		{
			name:    "missing context defaults",
			reply:   `{"task": "Explain tides", "form": "text"}`,
			request: "Explain tides",
			want:    solution.New("Explain tides", DefaultContext, solution.FormText),
		},
		{
			name:    "missing form uses keywords",
			reply:   `{"task": "Write a function that reverses a string", "context": "strings"}`,
			request: "Write a function that reverses a string",
			want:    solution.New("Write a function that reverses a string", "strings", solution.FormCode),
		},
		{
			name:    "garbage falls back",
			reply:   "sure thing!",
			request: "Tell me what is 3 plus 2",
			want:    solution.New("Tell me what is 3 plus 2", DefaultContext, solution.FormText),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(llmtest.New().On(taskMarker, tt.reply), nil)
			got, err := p.ParseTask(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTask_Empty(t *testing.T) {
	p := New(llmtest.New(), nil)
	_, err := p.ParseTask(context.Background(), "   ")
	assert.ErrorIs(t, err, solution.ErrContract)
}

func TestGuessForm(t *testing.T) {
	assert.Equal(t, solution.FormCode, GuessForm("Give me a code returning the geometric average"))
	assert.Equal(t, solution.FormCode, GuessForm("a Python SCRIPT please"))
	assert.Equal(t, solution.FormText, GuessForm("Who painted the Mona Lisa?"))
	assert.Equal(t, solution.FormText, GuessForm("encode this as prose"))
}

func TestRequirements(t *testing.T) {
	p := New(llmtest.New().On(reqMarker, `["return a float", "return a float", "zero for empty list"]`), nil)
	s := solution.New("geo mean", "math", solution.FormCode)

	out, err := p.Requirements(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"return a float", "return a float", "zero for empty list"}, out.Requirements)
	assert.Empty(t, s.Requirements, "input untouched")
}

func TestRequirements_MalformedIsFatal(t *testing.T) {
	p := New(llmtest.New().On(reqMarker, "just do it well"), nil)
	_, err := p.Requirements(context.Background(), solution.New("x", "y", solution.FormText))
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)
}

func TestRequirements_EmptyListIsFatal(t *testing.T) {
	for _, reply := range []string{`[]`, `[""]`, `["  "]`} {
		p := New(llmtest.New().On(reqMarker, reply), nil)
		_, err := p.Requirements(context.Background(), solution.New("x", "y", solution.FormText))
		assert.ErrorIs(t, err, llm.ErrMalformedOutput, reply)
	}
}

func TestRequirements_CompleterError(t *testing.T) {
	boom := errors.New("quota")
	p := New(llm.CompleterFunc(func(context.Context, string, []llm.Message) (string, error) {
		return "", boom
	}), nil)
	_, err := p.Requirements(context.Background(), solution.New("x", "y", solution.FormText))
	assert.ErrorIs(t, err, boom)
}

func TestTests_Additive(t *testing.T) {
	fake := llmtest.New().On(testsMarker, `["empty list returns zero", "mean of [1,4] is 2"]`, `["negative input"]`)
	p := New(fake, nil)
	s := solution.New("geo mean", "math", solution.FormCode).WithRequirements([]string{"r1"})

	s, err := p.Tests(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, s.Tests, 2)
	for _, tc := range s.Tests {
		assert.Equal(t, solution.FormCode, tc.Form)
		assert.Equal(t, solution.ResultUnknown, tc.Result)
		assert.Empty(t, tc.Implementation)
	}

	s, err = p.Tests(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, s.Tests, 3)
	assert.Equal(t, "empty list returns zero", s.Tests[0].Description)
	assert.Equal(t, "negative input", s.Tests[2].Description)

	second := fake.CallsMatching(testsMarker)[1].Prompt()
	assert.Contains(t, second, "Existing tests:")
	assert.Contains(t, second, "empty list returns zero")
}

func TestTests_MalformedAddsNothing(t *testing.T) {
	p := New(llmtest.New().On(testsMarker, "no tests today"), nil)
	s := solution.New("t", "c", solution.FormText).WithRequirements([]string{"r"})

	out, err := p.Tests(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, out.Tests)
}

func TestTests_KeepsAuthorAssertions(t *testing.T) {
	task := "Write a function add(a, b).\nassert add(2, 3) == 5\ntest: add(-1, 1) returns 0"
	p := New(llmtest.New().On(testsMarker, `["adds two numbers", "assert add(2, 3) == 5"]`), nil)
	s := solution.New(task, "math", solution.FormCode).WithRequirements([]string{"adds"})

	out, err := p.Tests(context.Background(), s)
	require.NoError(t, err)

	var descs []string
	for _, tc := range out.Tests {
		descs = append(descs, tc.Description)
	}
	assert.Equal(t, []string{"adds two numbers", "assert add(2, 3) == 5", "test: add(-1, 1) returns 0"}, descs)
}

func TestAuthorAssertions(t *testing.T) {
	got := AuthorAssertions("intro\n - assert x > 0\nTest: y\nnot an assertion\nreassert nothing")
	assert.Equal(t, []string{"- assert x > 0", "Test: y"}, got)
}

func TestStructure(t *testing.T) {
	p := New(llmtest.New().On(structureMarker, `["validate input", "compute log sum", "exponentiate"]`), nil)
	out, err := p.Structure(context.Background(), solution.New("t", "c", solution.FormCode))
	require.NoError(t, err)
	assert.Equal(t, []string{"validate input", "compute log sum", "exponentiate"}, out.Structure)
}

func TestStructure_MalformedIsEmpty(t *testing.T) {
	p := New(llmtest.New().On(structureMarker, "It is trivial."), nil)
	out, err := p.Structure(context.Background(), solution.New("t", "c", solution.FormText))
	require.NoError(t, err)
	assert.Empty(t, out.Structure)
}
