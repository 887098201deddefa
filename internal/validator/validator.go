// Package validator checks a candidate solution against its tests.
//
// Validation is a small state machine:
//
//	PREPARE → PICK_TEST → {IMPLEMENT_TEST → RUN_TEST → PICK_TEST}* → FINALIZE → CRITIQUE → DONE
//
// PREPARE picks the text or code strategy and builds a worklist of the
// tests that have no verdict for the current body. Each worklist entry is
// implemented if needed and run. FINALIZE merges the run results into the
// solution in one step and CRITIQUE asks for a verdict on every test that
// ran.
package validator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/solvy/internal/llm"
	"github.com/HendryAvila/solvy/internal/solution"
)

// Runner executes a test program and returns its output. It never fails;
// errors come back as text.
type Runner interface {
	Run(ctx context.Context, code string) string
}

// State is a validation step.
type State int

const (
	StatePrepare State = iota
	StatePickTest
	StateImplementTest
	StateRunTest
	StateFinalize
	StateCritique
	StateDone
)

var stateNames = [...]string{
	StatePrepare:       "PREPARE",
	StatePickTest:      "PICK_TEST",
	StateImplementTest: "IMPLEMENT_TEST",
	StateRunTest:       "RUN_TEST",
	StateFinalize:      "FINALIZE",
	StateCritique:      "CRITIQUE",
	StateDone:          "DONE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Validator runs tests and records verdicts.
type Validator struct {
	completer llm.Completer
	runner    Runner
	logger    *zap.Logger
	onVerdict func(solution.Result)
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithVerdictHook is called once per critiqued test.
func WithVerdictHook(fn func(solution.Result)) Option {
	return func(v *Validator) { v.onVerdict = fn }
}

// New creates a Validator. runner is only used for code solutions.
func New(c llm.Completer, r Runner, opts ...Option) *Validator {
	v := &Validator{
		completer: c,
		runner:    r,
		logger:    zap.NewNop(),
		onVerdict: func(solution.Result) {},
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Pending reports whether t has no verdict for the body with digest.
func Pending(t solution.Test, digest string) bool {
	return t.CritiqueOfLastRun == "" || t.RunFor != digest
}

// machine holds one validation pass.
type machine struct {
	v        *Validator
	state    State
	sol      solution.Solution
	strat    strategy
	digest   string
	work     []solution.Test
	worklist []int
	ran      []int
	cur      int
}

// Validate brings every test of s up to date with the current body. Only
// tests without a verdict for this body are implemented, run and
// critiqued. On return every test has a non-empty critique for the
// current body. s must have a body.
func (v *Validator) Validate(ctx context.Context, s solution.Solution) (solution.Solution, error) {
	if s.IsEmpty() {
		return s, fmt.Errorf("%w: validate needs a solution body", solution.ErrContract)
	}
	ctx = llm.WithPhase(ctx, "validate")
	m := &machine{v: v, state: StatePrepare, sol: s}

	for m.state != StateDone {
		if err := ctx.Err(); err != nil {
			return s, fmt.Errorf("validator: %s: %w", m.state, err)
		}
		v.logger.Debug("validator state", zap.Stringer("state", m.state))
		if err := m.step(ctx); err != nil {
			return s, fmt.Errorf("validator: %s: %w", m.state, err)
		}
	}
	return m.sol, nil
}

func (m *machine) step(ctx context.Context) error {
	switch m.state {
	case StatePrepare:
		m.strat = strategyFor(m.sol.Form, m.v.completer, m.v.runner)
		m.digest = m.sol.Digest()
		m.work = append([]solution.Test(nil), m.sol.Tests...)
		for i, t := range m.work {
			if Pending(t, m.digest) {
				m.worklist = append(m.worklist, i)
			}
		}
		m.state = StatePickTest

	case StatePickTest:
		if len(m.worklist) == 0 {
			m.state = StateFinalize
			return nil
		}
		m.cur, m.worklist = m.worklist[0], m.worklist[1:]
		m.state = StateImplementTest

	case StateImplementTest:
		t := &m.work[m.cur]
		if m.strat.regenerate(*t, m.digest) {
			impl, err := m.strat.implement(ctx, m.sol, *t)
			if err != nil {
				m.v.logger.Warn("test implementation failed",
					zap.String("test", t.Description), zap.Error(err))
				impl = ""
				t.LastOutput = "error: " + err.Error()
			} else if impl == "" {
				t.LastOutput = ""
			}
			t.Implementation = impl
			t.ImplementedFor = m.digest
		}
		m.state = StateRunTest

	case StateRunTest:
		t := &m.work[m.cur]
		if t.Implementation != "" {
			t.LastOutput = m.strat.run(ctx, m.sol, *t)
		} else if t.LastOutput == "" {
			t.LastOutput = "error: empty test implementation"
		}
		t.RunFor = m.digest
		m.ran = append(m.ran, m.cur)
		m.state = StatePickTest

	case StateFinalize:
		merged, err := m.sol.WithTests(m.work)
		if err != nil {
			return err
		}
		m.sol = merged
		m.state = StateCritique

	case StateCritique:
		tests := append([]solution.Test(nil), m.sol.Tests...)
		for _, i := range m.ran {
			result, text := m.v.critique(ctx, m.sol, tests[i])
			tests[i].Result = result
			tests[i].CritiqueOfLastRun = text
			m.v.onVerdict(result)
			m.v.logger.Info("test verdict",
				zap.String("test", tests[i].Description), zap.String("result", string(result)))
		}
		merged, err := m.sol.WithTests(tests)
		if err != nil {
			return err
		}
		m.sol = merged
		m.state = StateDone
	}
	return nil
}
