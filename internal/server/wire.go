package server

import (
	"context"
	"fmt"
	"os"

	"github.com/HendryAvila/solvy/internal/config"
	"github.com/HendryAvila/solvy/internal/embedding"
	"github.com/HendryAvila/solvy/internal/knowledge"
	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/memory"
	"github.com/HendryAvila/solvy/internal/pipeline"
	"github.com/HendryAvila/solvy/internal/sandbox"
	"github.com/HendryAvila/solvy/internal/solver"
	"github.com/HendryAvila/solvy/internal/telemetry"
	"github.com/HendryAvila/solvy/internal/templates"
	"go.uber.org/zap"
)

// Components are the long-lived collaborators built from a Config. Both
// the MCP server and the CLI are thin shells around them.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
	Memory   *memory.Store
	Runs     *pipeline.FileStore
	Renderer templates.Renderer
	Solver   *solver.Solver
}

// Build resolves every dependency named in cfg. The returned cleanup
// closes the memory store; it is always non-nil.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *telemetry.Metrics) (*Components, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	completer, err := llm.New(ctx, llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		RPS:         cfg.LLM.RPS,
		Burst:       cfg.LLM.Burst,
		Retries:     cfg.LLM.Retries,
	}, logger.Named("llm"), metrics.ObserveModelCall)
	if err != nil {
		return nil, noop, fmt.Errorf("creating completer: %w", err)
	}

	store, err := OpenMemory(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("memory store close failed", zap.Error(err))
		}
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	runs := pipeline.NewFileStore(cfg.Memory.DataDir)
	primary, fallback := knowledgeSources(cfg, completer)

	sv, err := solver.New(solver.Deps{
		Completer: completer,
		Memory:    store,
		Runner:    sandbox.New(cfg.Sandbox.Timeout, logger.Named("sandbox")),
		Fetcher:   primary,
		Fallback:  fallback,
		Runs:      runs,
		Renderer:  renderer,
		Metrics:   metrics,
		Logger:    logger.Named("solver"),
	}, solver.Options{
		MaxAttempts:     cfg.Solver.MaxAttempts,
		RecallK:         cfg.Solver.RecallK,
		ResourceK:       cfg.Solver.ResourceK,
		ResourceWorkers: cfg.Solver.ResourceWorkers,
	})
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating solver: %w", err)
	}

	return &Components{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Memory:   store,
		Runs:     runs,
		Renderer: renderer,
		Solver:   sv,
	}, cleanup, nil
}

// OpenMemory opens the memory store with the configured embedder. It needs
// no completion model, so memory maintenance commands work without one.
func OpenMemory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*memory.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	embedder, err := embedding.New(ctx, embeddingOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := memory.New(memory.Config{
		DataDir:          cfg.Memory.DataDir,
		MaxContentLength: cfg.Memory.MaxContentLength,
		MaxSearchResults: cfg.Memory.MaxSearchResults,
		CandidatePool:    cfg.Memory.CandidatePool,
	}, memory.WithEmbedder(embedder), memory.WithLogger(logger.Named("memory")))
	if err != nil {
		return nil, fmt.Errorf("opening memory: %w", err)
	}
	return store, nil
}

// embeddingOptions reuses the completion credentials when both use the
// same provider.
func embeddingOptions(cfg *config.Config) embedding.Options {
	opts := embedding.Options{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		CacheSize: cfg.Embedding.CacheSize,
	}
	if opts.Provider == cfg.LLM.Provider {
		opts.APIKey = cfg.LLM.APIKey
		opts.BaseURL = cfg.LLM.BaseURL
		return opts
	}
	switch opts.Provider {
	case "gemini":
		opts.APIKey = os.Getenv("GEMINI_API_KEY")
		if opts.APIKey == "" {
			opts.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	case "openai":
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return opts
}

// knowledgeSources picks the fetcher for new resources and its fallback.
// With no_external set, or the generative provider selected, the model is
// the only source.
func knowledgeSources(cfg *config.Config, c llm.Completer) (primary, fallback knowledge.Fetcher) {
	gen := knowledge.NewGenerative(c)
	if cfg.Solver.NoExternal || cfg.Knowledge.Provider == "generative" {
		return gen, nil
	}
	return knowledge.NewWikipedia(cfg.Knowledge.Endpoint, cfg.Knowledge.Timeout), gen
}
