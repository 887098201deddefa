// Package resources gathers the background material a solution needs,
// reusing stored resources before fetching new ones.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/solvy/internal/knowledge"
	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// Memory is the slice of the memory store the manager uses.
type Memory interface {
	FindResources(ctx context.Context, f solution.Form, queryContext, request string, k int) ([]solution.Resource, error)
	SaveResource(ctx context.Context, r solution.Resource) (string, error)
}

// Outcome reports how one request was settled.
type Outcome string

const (
	OutcomeMemory Outcome = "memory"
	OutcomeFetch  Outcome = "fetch"
	OutcomeFailed Outcome = "failed"
)

// maxSentences caps condensed text resources.
const maxSentences = 6

// Options tunes resolution.
type Options struct {
	// K is the number of stored resources judged per request.
	K int
	// Workers bounds concurrent resolutions.
	Workers int
}

// Manager resolves resource requests for a solution.
type Manager struct {
	completer llm.Completer
	memory    Memory
	fetcher   knowledge.Fetcher
	fallback  knowledge.Fetcher
	opts      Options
	logger    *zap.Logger
	onOutcome func(Outcome)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithOutcomeHook is called once per resolved or failed request.
func WithOutcomeHook(fn func(Outcome)) Option {
	return func(m *Manager) { m.onOutcome = fn }
}

// WithFallback sets the fetcher used when the primary one finds nothing.
func WithFallback(f knowledge.Fetcher) Option {
	return func(m *Manager) { m.fallback = f }
}

// New creates a Manager. A nil fetcher means knowledge comes from the
// completer alone.
func New(c llm.Completer, mem Memory, fetcher knowledge.Fetcher, opts Options, options ...Option) *Manager {
	if opts.K <= 0 {
		opts.K = 3
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if fetcher == nil {
		fetcher = knowledge.NewGenerative(c)
	}
	m := &Manager{
		completer: c,
		memory:    mem,
		fetcher:   fetcher,
		opts:      opts,
		logger:    zap.NewNop(),
		onOutcome: func(Outcome) {},
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// NewRequests asks for resource requests not yet present in s. Unusable
// replies yield no requests.
func (m *Manager) NewRequests(ctx context.Context, s solution.Solution) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\nTask: %s\n", s.Context, s.Task)
	if len(s.Structure) > 0 {
		b.WriteString("Structure:\n")
		for _, st := range s.Structure {
			fmt.Fprintf(&b, "- %s\n", st)
		}
	}
	b.WriteString("Already requested:\n")
	keys := s.ResourceKeys()
	if len(keys) == 0 {
		b.WriteString("(none)\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s\n", k)
	}

	out, err := llm.Ask(llm.WithPhase(ctx, "resources"), m.completer, RequestsSystemPrompt, b.String())
	if err != nil {
		m.logger.Warn("resource request generation failed", zap.Error(err))
		return nil
	}
	reqs, err := llm.ParseStringList(out)
	if err != nil {
		m.logger.Debug("unparseable resource requests", zap.Error(err))
		return nil
	}

	var fresh []string
	seen := map[string]bool{}
	for _, r := range reqs {
		if _, ok := s.Resources[r]; ok || seen[r] {
			continue
		}
		seen[r] = true
		fresh = append(fresh, r)
	}
	return fresh
}

// Resolve adds new requests to s and settles every request still holding
// the NotProvided sentinel. Requests that cannot be settled keep the
// sentinel. The returned error is non-nil only when ctx ends.
func (m *Manager) Resolve(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	out := s.RequestResources(m.NewRequests(ctx, s))
	pending := out.PendingResources()
	if len(pending) == 0 {
		return out, nil
	}
	m.logger.Debug("resolving resources", zap.Int("pending", len(pending)))

	var (
		mu    sync.Mutex
		board = make(map[string]string, len(pending))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for _, key := range pending {
		g.Go(func() error {
			content, outcome := m.resolveOne(gctx, out, key)
			m.onOutcome(outcome)
			if outcome == OutcomeFailed {
				return nil
			}
			mu.Lock()
			board[key] = content
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out = out.MergeResources(board)
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("resources: resolve: %w", err)
	}
	return out, nil
}

func (m *Manager) resolveOne(ctx context.Context, s solution.Solution, key string) (string, Outcome) {
	log := m.logger.With(zap.String("request", key))
	form := m.classify(ctx, key)

	if content, ok := m.fromMemory(ctx, s, form, key); ok {
		log.Debug("resource found in memory")
		return content, OutcomeMemory
	}

	content, origin, err := m.fetch(ctx, key)
	if err != nil {
		log.Warn("resource fetch failed", zap.Error(err))
		return "", OutcomeFailed
	}
	if form == solution.FormText {
		content = m.condense(ctx, key, content)
	}

	r := solution.Resource{Form: form, Context: s.Context, Request: key, Content: content, Origin: origin}
	if _, err := m.memory.SaveResource(ctx, r); err != nil {
		log.Warn("saving resource failed", zap.Error(err))
	}
	return content, OutcomeFetch
}

func (m *Manager) classify(ctx context.Context, key string) solution.Form {
	out, err := llm.Ask(llm.WithPhase(ctx, "resources"), m.completer, ClassifySystemPrompt, "Request: "+key)
	if err != nil {
		m.logger.Debug("resource classification failed", zap.Error(err))
		return solution.FormText
	}
	return solution.ParseForm(out)
}

func (m *Manager) fromMemory(ctx context.Context, s solution.Solution, form solution.Form, key string) (string, bool) {
	candidates, err := m.memory.FindResources(ctx, form, s.Context, key, m.opts.K)
	if err != nil {
		m.logger.Warn("resource lookup failed", zap.Error(err))
		return "", false
	}
	for _, c := range candidates {
		prompt := fmt.Sprintf("Task: %s\nContext: %s\nRequest: %s\n\nRecalled resource:\n%s",
			s.Task, s.Context, key, c.Content)
		out, err := llm.Ask(llm.WithPhase(ctx, "resources"), m.completer, RelevanceSystemPrompt, prompt)
		if err != nil {
			m.logger.Debug("relevance check failed", zap.Error(err))
			continue
		}
		if isTrue(out) {
			return c.Content, true
		}
	}
	return "", false
}

func (m *Manager) fetch(ctx context.Context, key string) (string, string, error) {
	content, err := m.fetcher.Fetch(ctx, key)
	if err == nil && strings.TrimSpace(content) != "" {
		return content, m.fetcher.Origin(), nil
	}
	if err == nil {
		err = knowledge.ErrNoResult
	}
	if m.fallback == nil || !errors.Is(err, knowledge.ErrNoResult) {
		return "", "", err
	}
	content, ferr := m.fallback.Fetch(ctx, key)
	if ferr != nil {
		return "", "", errors.Join(err, ferr)
	}
	if strings.TrimSpace(content) == "" {
		return "", "", knowledge.ErrNoResult
	}
	return content, m.fallback.Origin(), nil
}

// condense keeps the part of content relevant to key. The raw content is
// kept when the model call fails.
func (m *Manager) condense(ctx context.Context, key, content string) string {
	prompt := fmt.Sprintf("Request: %s\n\nSource:\n%s", key, content)
	out, err := llm.Ask(llm.WithPhase(ctx, "resources"), m.completer, CondenseSystemPrompt, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		return firstSentences(content, maxSentences)
	}
	return firstSentences(strings.TrimSpace(out), maxSentences)
}

func isTrue(s string) bool {
	t := strings.ToLower(llm.StripFences(s))
	return strings.Contains(t, "true") && !strings.Contains(t, "false")
}

// firstSentences returns at most n sentences of s.
func firstSentences(s string, n int) string {
	s = strings.TrimSpace(s)
	count := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '!', '?':
			if i+1 == len(s) || s[i+1] == ' ' || s[i+1] == '\n' {
				count++
				if count == n {
					return s[:i+1]
				}
			}
		}
	}
	return s
}
