// Package iteration alternates proposals and validation until every test
// passes or the attempt budget is spent.
package iteration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/solution"
)

// DefaultMaxAttempts bounds proposals per run.
const DefaultMaxAttempts = 2

// Proposer produces a new candidate body.
type Proposer interface {
	Propose(ctx context.Context, s solution.Solution) (solution.Solution, error)
}

// Validator brings test verdicts up to date.
type Validator interface {
	Validate(ctx context.Context, s solution.Solution) (solution.Solution, error)
}

// Controller drives the propose/validate loop.
type Controller struct {
	proposer    Proposer
	validator   Validator
	maxAttempts int
	logger      *zap.Logger
}

// New creates a Controller. maxAttempts <= 0 uses DefaultMaxAttempts.
func New(p Proposer, v Validator, maxAttempts int, logger *zap.Logger) *Controller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{proposer: p, validator: v, maxAttempts: maxAttempts, logger: logger}
}

// MaxAttempts returns the proposal budget.
func (c *Controller) MaxAttempts() int { return c.maxAttempts }

// Iterate proposes when s has no body, validates, and proposes again while
// a test fails and attempts remain. Running out of attempts with failing
// tests is not an error; the last validated solution is returned.
func (c *Controller) Iterate(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	cur := s
	if cur.IsEmpty() {
		next, err := c.proposer.Propose(ctx, cur)
		if err != nil {
			return s, fmt.Errorf("iteration: propose: %w", err)
		}
		cur = next
	} else if cur.ProposalTries == 0 {
		cur = cur.Clone()
		cur.ProposalTries = 1
	}

	for {
		if cur.IsEmpty() {
			// No body to validate; only another proposal can help.
			c.logger.Warn("proposal produced no body", zap.Int("attempt", cur.ProposalTries))
		} else {
			validated, err := c.validator.Validate(ctx, cur)
			if err != nil {
				return cur, fmt.Errorf("iteration: validate: %w", err)
			}
			cur = validated
		}

		pass, fail, unknown := cur.Tally()
		c.logger.Info("attempt finished",
			zap.Int("attempt", cur.ProposalTries),
			zap.Int("pass", pass), zap.Int("fail", fail), zap.Int("unknown", unknown))

		if !c.retry(cur) {
			return cur, nil
		}
		next, err := c.proposer.Propose(ctx, cur)
		if err != nil {
			return cur, fmt.Errorf("iteration: propose: %w", err)
		}
		cur = next
	}
}

func (c *Controller) retry(s solution.Solution) bool {
	if s.ProposalTries >= c.maxAttempts {
		return false
	}
	return s.IsEmpty() || s.AnyFailed()
}
