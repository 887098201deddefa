package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/solution"
)

// ResourceDomain returns the domain holding resources of form f.
func ResourceDomain(f solution.Form) Domain {
	if f == solution.FormCode {
		return DomainCodeResources
	}
	return DomainTextResources
}

// SaveSolution persists a snapshot of sol in the solutions domain. Each
// call stores a new record, so every proposal is kept.
func (s *Store) SaveSolution(ctx context.Context, sol solution.Solution) (string, error) {
	body, err := json.Marshal(sol)
	if err != nil {
		return "", fmt.Errorf("memory: encode solution: %w", err)
	}
	return s.Add(ctx, Record{
		Domain:  DomainSolutions,
		Context: sol.Context,
		Request: solutionRequest(sol),
		Body:    string(body),
	})
}

// FindSolutions returns up to k stored solutions relevant to the given
// task context and request, best first. Undecodable records are skipped.
func (s *Store) FindSolutions(ctx context.Context, queryContext, request string, k int) ([]solution.Solution, error) {
	hits, err := s.Query(ctx, DomainSolutions, queryContext, request, k)
	if err != nil {
		return nil, err
	}
	out := make([]solution.Solution, 0, len(hits))
	for _, h := range hits {
		var sol solution.Solution
		if err := json.Unmarshal([]byte(h.Body), &sol); err != nil {
			s.logger.Warn("skipping undecodable solution record", zap.String("id", h.ID), zap.Error(err))
			continue
		}
		sol.ID = h.ID
		out = append(out, sol)
	}
	return out, nil
}

// SaveResource persists r in the domain matching its form.
func (s *Store) SaveResource(ctx context.Context, r solution.Resource) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("memory: encode resource: %w", err)
	}
	return s.Add(ctx, Record{
		ID:      r.ID,
		Domain:  ResourceDomain(r.Form),
		Context: r.Context,
		Request: r.Request,
		Body:    string(body),
	})
}

// FindResources returns up to k stored resources of form f relevant to the
// given context and request, best first.
func (s *Store) FindResources(ctx context.Context, f solution.Form, queryContext, request string, k int) ([]solution.Resource, error) {
	hits, err := s.Query(ctx, ResourceDomain(f), queryContext, request, k)
	if err != nil {
		return nil, err
	}
	out := make([]solution.Resource, 0, len(hits))
	for _, h := range hits {
		var r solution.Resource
		if err := json.Unmarshal([]byte(h.Body), &r); err != nil {
			s.logger.Warn("skipping undecodable resource record", zap.String("id", h.ID), zap.Error(err))
			continue
		}
		r.ID = h.ID
		out = append(out, r)
	}
	return out, nil
}

// solutionRequest is the indexed text of a solution: its task followed by
// its requirements.
func solutionRequest(sol solution.Solution) string {
	parts := append([]string{sol.Task}, sol.Requirements...)
	return strings.Join(parts, "\n")
}
