// Package llmtest provides a deterministic llm.Completer for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/HendryAvila/solvy/internal/llm"
)

// Call records one Complete invocation.
type Call struct {
	System  string
	History []llm.Message
}

// Prompt returns the text of the last user message.
func (c Call) Prompt() string {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Role == llm.RoleUser {
			return c.History[i].Text
		}
	}
	return ""
}

// Handler computes a reply for a call.
type Handler func(call Call) (string, error)

type rule struct {
	marker  string
	handler Handler
}

// Scripted routes each call to the first rule whose marker occurs in the
// system instruction. Calls matching no rule return Fallback, or an error
// when Strict is set.
type Scripted struct {
	Fallback string
	Strict   bool

	mu    sync.Mutex
	rules []rule
	calls []Call
}

// New returns an empty, non-strict Scripted completer.
func New() *Scripted {
	return &Scripted{}
}

// On replies with replies in order for calls whose system instruction
// contains marker. The last reply repeats once the list is exhausted.
func (s *Scripted) On(marker string, replies ...string) *Scripted {
	var n int
	var mu sync.Mutex
	return s.OnFunc(marker, func(Call) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return "", nil
		}
		r := replies[min(n, len(replies)-1)]
		n++
		return r, nil
	})
}

// OnFunc registers a handler for calls whose system instruction contains marker.
func (s *Scripted) OnFunc(marker string, h Handler) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{marker: marker, handler: h})
	return s
}

// Complete implements llm.Completer.
func (s *Scripted) Complete(ctx context.Context, system string, history []llm.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	call := Call{System: system, History: append([]llm.Message(nil), history...)}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	var h Handler
	for _, r := range s.rules {
		if strings.Contains(system, r.marker) {
			h = r.handler
			break
		}
	}
	fallback, strict := s.Fallback, s.Strict
	s.mu.Unlock()

	if h == nil {
		if strict {
			return "", fmt.Errorf("llmtest: no rule for system prompt %q", head(system))
		}
		return fallback, nil
	}
	return h(call)
}

// Calls returns every recorded call.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsMatching returns recorded calls whose system instruction contains marker.
func (s *Scripted) CallsMatching(marker string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if strings.Contains(c.System, marker) {
			out = append(out, c)
		}
	}
	return out
}

func head(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
