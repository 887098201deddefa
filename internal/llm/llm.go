// Package llm is the boundary to the generative model.
//
// Every stage of the solver talks to the model through Completer, a single
// blocking call that takes a system instruction and an ordered message
// history. Providers (Gemini, OpenAI) implement it directly and
// cross-cutting concerns (retry, rate limiting, logging, metrics) are
// layered on with Middleware.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyOutput is returned by providers that produced no text.
	ErrEmptyOutput = errors.New("llm: empty output")
	// ErrMalformedOutput is returned when model output cannot be parsed
	// into the shape a stage asked for.
	ErrMalformedOutput = errors.New("llm: malformed output")
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// User returns a user message.
func User(text string) Message { return Message{Role: RoleUser, Text: text} }

// Model returns a model message.
func Model(text string) Message { return Message{Role: RoleModel, Text: text} }

// Completer produces the next model message for a conversation.
type Completer interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system string, history []Message) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system string, history []Message) (string, error) {
	return f(ctx, system, history)
}

// Ask is shorthand for a single user turn.
func Ask(ctx context.Context, c Completer, system, prompt string) (string, error) {
	return c.Complete(ctx, system, []Message{User(prompt)})
}

// --- Phase tagging ---

type phaseKey struct{}

// WithPhase tags ctx with the pipeline phase issuing model calls. Logging
// and metrics middleware read it back.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey{}, phase)
}

// PhaseFrom returns the phase tagged on ctx, or "unknown".
func PhaseFrom(ctx context.Context) string {
	if v, ok := ctx.Value(phaseKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
