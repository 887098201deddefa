package solution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForm(t *testing.T) {
	tests := []struct {
		in   string
		want Form
	}{
		{"code", FormCode},
		{"The answer should be Code.", FormCode},
		{"text", FormText},
		{"", FormText},
		{"a short essay", FormText},
	}
	for _, tt := range tests {
		if got := ParseForm(tt.in); got != tt.want {
			t.Errorf("ParseForm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateForm(t *testing.T) {
	assert.NoError(t, ValidateForm(FormText))
	assert.NoError(t, ValidateForm(FormCode))
	assert.Error(t, ValidateForm("poem"))
}

func TestClone_DoesNotShareState(t *testing.T) {
	s := New("task", "ctx", FormCode).
		WithRequirements([]string{"a"}).
		RequestResources([]string{"k"}).
		AppendTests([]string{"t1"})

	c := s.Clone()
	c.Requirements[0] = "changed"
	c.Resources["k"] = "changed"
	c.Tests[0].Result = ResultPass

	assert.Equal(t, "a", s.Requirements[0])
	assert.Equal(t, NotProvided, s.Resources["k"])
	assert.Equal(t, ResultUnknown, s.Tests[0].Result)
}

func TestMergeResources_Idempotent(t *testing.T) {
	s := New("task", "ctx", FormText).RequestResources([]string{"a", "b"})
	found := map[string]string{"a": "alpha", "c": "gamma"}

	once := s.MergeResources(found)
	twice := once.MergeResources(found)

	assert.Equal(t, once.Resources, twice.Resources)
	assert.Equal(t, map[string]string{"a": "alpha", "b": NotProvided, "c": "gamma"}, twice.Resources)
}

func TestMergeResources_NeverReplacesResolved(t *testing.T) {
	s := New("task", "ctx", FormText).MergeResources(map[string]string{"a": "first"})
	s = s.MergeResources(map[string]string{"a": "second"})
	s = s.RequestResources([]string{"a"})
	assert.Equal(t, "first", s.Resources["a"])
}

func TestMergeResources_IgnoresSentinelValues(t *testing.T) {
	s := New("task", "ctx", FormText).MergeResources(map[string]string{"a": "x"})
	s = s.MergeResources(map[string]string{"a": NotProvided, "b": ""})
	assert.Equal(t, map[string]string{"a": "x"}, s.Resources)
}

func TestPendingResources_Sorted(t *testing.T) {
	s := New("task", "ctx", FormText).
		RequestResources([]string{"zeta", "alpha", "mid"}).
		MergeResources(map[string]string{"mid": "known"})
	assert.Equal(t, []string{"alpha", "zeta"}, s.PendingResources())
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.ResourceKeys())
}

func TestAppendTests_Monotonic(t *testing.T) {
	s := New("task", "ctx", FormCode).AppendTests([]string{"one", "two"})
	s = s.AppendTests([]string{"three"})

	require.Len(t, s.Tests, 3)
	assert.Equal(t, "one", s.Tests[0].Description)
	assert.Equal(t, "three", s.Tests[2].Description)
	for _, tt := range s.Tests {
		assert.Equal(t, FormCode, tt.Form)
		assert.Equal(t, ResultUnknown, tt.Result)
	}
}

func TestWithTests_RejectsShrink(t *testing.T) {
	s := New("task", "ctx", FormText).AppendTests([]string{"one", "two"})
	_, err := s.WithTests(s.Tests[:1])
	assert.True(t, errors.Is(err, ErrContract))

	grown, err := s.WithTests(append(s.Clone().Tests, NewTest("three", FormText)))
	require.NoError(t, err)
	assert.Len(t, grown.Tests, 3)
}

func TestWithProposal(t *testing.T) {
	s := New("task", "ctx", FormText)
	s = s.WithProposal("first")
	assert.Equal(t, "first", s.Solution)
	assert.Equal(t, 1, s.ProposalTries)

	s = s.WithProposal("")
	assert.Equal(t, "first", s.Solution, "empty output keeps previous body")
	assert.Equal(t, 2, s.ProposalTries)
}

func TestDigest(t *testing.T) {
	empty := New("task", "ctx", FormText)
	assert.Empty(t, empty.Digest())

	a := empty.WithProposal("a")
	b := empty.WithProposal("b")
	assert.NotEmpty(t, a.Digest())
	assert.NotEqual(t, a.Digest(), b.Digest())
	assert.Equal(t, a.Digest(), a.Clone().Digest())
}

func TestTallyAndFailed(t *testing.T) {
	s := New("task", "ctx", FormText).AppendTests([]string{"a", "b", "c"})
	s.Tests[0].Result = ResultPass
	s.Tests[1].Result = ResultFail

	pass, fail, unknown := s.Tally()
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{pass, fail, unknown})
	assert.True(t, s.AnyFailed())
	require.Len(t, s.FailedTests(), 1)
	assert.Equal(t, "b", s.FailedTests()[0].Description)
}
