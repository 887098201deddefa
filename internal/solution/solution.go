package solution

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"sort"
)

// New returns a fresh Solution with no proposals yet.
func New(task, context string, form Form) Solution {
	return Solution{
		Task:      task,
		Context:   context,
		Form:      form,
		Resources: map[string]string{},
	}
}

// Clone returns a deep copy of s.
func (s Solution) Clone() Solution {
	out := s
	out.Requirements = slices.Clone(s.Requirements)
	out.Structure = slices.Clone(s.Structure)
	out.Tests = slices.Clone(s.Tests)
	out.Resources = maps.Clone(s.Resources)
	if out.Resources == nil {
		out.Resources = map[string]string{}
	}
	return out
}

// IsEmpty reports whether no body has been proposed or recalled yet.
func (s Solution) IsEmpty() bool {
	return s.Solution == ""
}

// WithRequirements returns a copy with the requirement list replaced.
func (s Solution) WithRequirements(reqs []string) Solution {
	out := s.Clone()
	out.Requirements = slices.Clone(reqs)
	return out
}

// WithStructure returns a copy with the structure outline replaced.
func (s Solution) WithStructure(items []string) Solution {
	out := s.Clone()
	out.Structure = slices.Clone(items)
	return out
}

// AppendTests returns a copy with one new unknown-result test per
// description. Existing tests are kept in order.
func (s Solution) AppendTests(descriptions []string) Solution {
	out := s.Clone()
	for _, d := range descriptions {
		out.Tests = append(out.Tests, NewTest(d, s.Form))
	}
	return out
}

// WithTests returns a copy carrying tests. The list may only grow.
func (s Solution) WithTests(tests []Test) (Solution, error) {
	if len(tests) < len(s.Tests) {
		return s, ErrContract
	}
	out := s.Clone()
	out.Tests = slices.Clone(tests)
	return out, nil
}

// RequestResources adds keys with the NotProvided sentinel. Keys that are
// already present keep their value.
func (s Solution) RequestResources(keys []string) Solution {
	out := s.Clone()
	for _, k := range keys {
		if _, ok := out.Resources[k]; !ok {
			out.Resources[k] = NotProvided
		}
	}
	return out
}

// MergeResources fills unresolved keys from found. A resolved key is never
// overwritten and keys are never removed, so merging is idempotent.
func (s Solution) MergeResources(found map[string]string) Solution {
	out := s.Clone()
	for k, v := range found {
		if v == "" || v == NotProvided {
			continue
		}
		if cur, ok := out.Resources[k]; !ok || cur == NotProvided {
			out.Resources[k] = v
		}
	}
	return out
}

// PendingResources returns the sorted keys still holding the sentinel.
func (s Solution) PendingResources() []string {
	var keys []string
	for k, v := range s.Resources {
		if v == NotProvided {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ResourceKeys returns every resource key, sorted.
func (s Solution) ResourceKeys() []string {
	keys := slices.Collect(maps.Keys(s.Resources))
	sort.Strings(keys)
	return keys
}

// WithProposal returns a copy holding body as the new candidate and one
// more proposal attempt counted. An empty body keeps the previous one.
func (s Solution) WithProposal(body string) Solution {
	out := s.Clone()
	if body != "" {
		out.Solution = body
	}
	out.ProposalTries++
	return out
}

// Digest identifies the current body. Empty for an empty body.
func (s Solution) Digest() string {
	if s.Solution == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.Solution))
	return hex.EncodeToString(sum[:8])
}

// AnyFailed reports whether at least one test was judged failing.
func (s Solution) AnyFailed() bool {
	for _, t := range s.Tests {
		if t.Result == ResultFail {
			return true
		}
	}
	return false
}

// FailedTests returns the tests whose last verdict was fail.
func (s Solution) FailedTests() []Test {
	var out []Test
	for _, t := range s.Tests {
		if t.Result == ResultFail {
			out = append(out, t)
		}
	}
	return out
}

// Tally counts tests per result.
func (s Solution) Tally() (pass, fail, unknown int) {
	for _, t := range s.Tests {
		switch t.Result {
		case ResultPass:
			pass++
		case ResultFail:
			fail++
		default:
			unknown++
		}
	}
	return pass, fail, unknown
}
