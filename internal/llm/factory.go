package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Options selects and tunes a provider.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	RPS         float64
	Burst       int
	Retries     int
}

// New builds the provider named in opts and wraps it with the standard
// middleware chain: logging, observer, retry, rate limit.
func New(ctx context.Context, opts Options, logger *zap.Logger, obs Observer) (Completer, error) {
	var base Completer
	switch opts.Provider {
	case "gemini":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("llm: gemini requires an API key (set GEMINI_API_KEY)")
		}
		g, err := NewGemini(ctx, opts.APIKey, opts.Model, opts.Temperature)
		if err != nil {
			return nil, err
		}
		base = g
	case "openai":
		if opts.APIKey == "" && opts.BaseURL == "" {
			return nil, fmt.Errorf("llm: openai requires an API key (set OPENAI_API_KEY) or a base URL")
		}
		base = NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, opts.Temperature)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}

	return Wrap(base,
		WithLogging(logger),
		WithObserver(obs),
		Retry(opts.Retries, 500*time.Millisecond),
		RateLimit(opts.RPS, opts.Burst),
	), nil
}
