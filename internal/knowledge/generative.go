package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// GenerativeSystemPrompt instructs the model to act as the knowledge source.
const GenerativeSystemPrompt = `You are a reference librarian for a problem-solving agent.
Write factual background knowledge answering the request below. Prefer
definitions, formulas and well-known examples. If the request asks for code,
answer with idiomatic Go. Do not solve the user's overall task.`

// Generative answers knowledge requests from the model itself. It is used
// when external lookups are disabled.
type Generative struct {
	completer llm.Completer
}

// NewGenerative creates a model-backed fetcher.
func NewGenerative(c llm.Completer) *Generative {
	return &Generative{completer: c}
}

// Origin implements Fetcher.
func (g *Generative) Origin() string { return solution.OriginGenerative }

// Fetch implements Fetcher.
func (g *Generative) Fetch(ctx context.Context, query string) (string, error) {
	out, err := llm.Ask(llm.WithPhase(ctx, "knowledge"), g.completer, GenerativeSystemPrompt, "Request: "+query)
	if err != nil {
		return "", fmt.Errorf("knowledge: generative: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrNoResult
	}
	return out, nil
}
