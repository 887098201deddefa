// Package embedding turns text into vectors so memory candidates can be
// reranked by semantic similarity.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Embedder generates embeddings for a batch of texts. The result holds one
// vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// Options selects an embedder.
type Options struct {
	Provider  string // none | gemini | openai
	Model     string
	APIKey    string
	BaseURL   string
	CacheSize int
}

// New builds the embedder named in opts, wrapped in an LRU cache when
// CacheSize > 0. Provider "none" or "" yields a nil Embedder and no error;
// callers then rank by full-text score alone.
func New(ctx context.Context, opts Options) (Embedder, error) {
	var e Embedder
	switch opts.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		g, err := NewGenAI(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		e = g
	case "openai":
		e = NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model)
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", opts.Provider)
	}
	if opts.CacheSize > 0 {
		c, err := NewCached(e, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return e, nil
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, am, bm float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		am += float64(a[i]) * float64(a[i])
		bm += float64(b[i]) * float64(b[i])
	}
	if am == 0 || bm == 0 {
		return 0
	}
	return dot / (math.Sqrt(am) * math.Sqrt(bm))
}
