package llmtest

import (
	"context"
	"testing"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted_RoutesByMarker(t *testing.T) {
	s := New().On("ALPHA", "a1", "a2").On("BETA", "b")
	s.Fallback = "fb"
	ctx := context.Background()

	out, _ := llm.Ask(ctx, s, "you are ALPHA", "x")
	assert.Equal(t, "a1", out)
	out, _ = llm.Ask(ctx, s, "you are ALPHA", "y")
	assert.Equal(t, "a2", out)
	out, _ = llm.Ask(ctx, s, "you are ALPHA", "z")
	assert.Equal(t, "a2", out, "last reply repeats")
	out, _ = llm.Ask(ctx, s, "BETA here", "x")
	assert.Equal(t, "b", out)
	out, _ = llm.Ask(ctx, s, "gamma", "x")
	assert.Equal(t, "fb", out)

	assert.Len(t, s.Calls(), 5)
	calls := s.CallsMatching("ALPHA")
	require.Len(t, calls, 3)
	assert.Equal(t, "y", calls[1].Prompt())
}

func TestScripted_Strict(t *testing.T) {
	s := New()
	s.Strict = true
	_, err := llm.Ask(context.Background(), s, "unmatched", "x")
	assert.Error(t, err)
}

func TestScripted_OnFunc(t *testing.T) {
	s := New().OnFunc("ECHO", func(c Call) (string, error) { return c.Prompt(), nil })
	out, err := llm.Ask(context.Background(), s, "ECHO", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
