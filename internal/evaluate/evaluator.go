// Package evaluate decides pass/fail for one expected-vs-actual tool-call
// comparison and produces diagnostics on mismatch. Evaluators are pure:
// they never suspend and never return an error.
package evaluate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/russolabs/russo/internal/models"
)

// leftoverName is the sentinel expected-call name used for synthetic
// outcomes reporting unconsumed actual calls.
const leftoverName = "(none)"

// Evaluator is the pluggable matching strategy. Custom implementations may
// apply arbitrary comparison semantics as long as they return a well-formed
// Verdict.
type Evaluator interface {
	Evaluate(expected, actual []models.Call) models.Verdict
}

// ExactEvaluator matches tool calls by exact name plus argument comparison,
// with independently configurable leniency knobs.
type ExactEvaluator struct {
	// MatchOrder requires expected call i to match actual call i; no
	// cross-position search. Default false.
	MatchOrder bool `mapstructure:"match_order"`
	// IgnoreExtraArgs accepts actual calls that carry argument keys beyond
	// the expected ones, as long as every expected key is present with an
	// equal value. Default false (exact argument equality).
	IgnoreExtraArgs bool `mapstructure:"ignore_extra_args"`
	// IgnoreExtraCalls accepts actual calls not consumed by any
	// expectation. Default true.
	IgnoreExtraCalls bool `mapstructure:"ignore_extra_calls"`
}

// NewExactEvaluator returns an evaluator with the default policy:
// order-insensitive, exact arguments, extra calls tolerated.
func NewExactEvaluator() *ExactEvaluator {
	return &ExactEvaluator{IgnoreExtraCalls: true}
}

// Evaluate compares expected tool calls against actual ones. It is total
// over its inputs: every input produces a Verdict.
func (e *ExactEvaluator) Evaluate(expected, actual []models.Call) models.Verdict {
	// Vacuous truth: no expectations means pass, regardless of actuals or
	// the leftover policy.
	if len(expected) == 0 {
		return models.Verdict{Passed: true, Expected: expected, Actual: actual, Matches: []models.MatchOutcome{}}
	}

	if e.MatchOrder {
		return e.evaluateOrdered(expected, actual)
	}
	return e.evaluateUnordered(expected, actual)
}

// evaluateUnordered walks the expectations in order, consuming at most one
// actual call from the remaining pool per expectation.
func (e *ExactEvaluator) evaluateUnordered(expected, actual []models.Call) models.Verdict {
	pool := make([]models.Call, len(actual))
	copy(pool, actual)

	matches := make([]models.MatchOutcome, 0, len(expected))

	for _, exp := range expected {
		idx := -1
		for i, candidate := range pool {
			if e.isMatch(exp, candidate) {
				idx = i
				break
			}
		}

		if idx >= 0 {
			hit := pool[idx]
			matches = append(matches, models.MatchOutcome{Expected: exp, Actual: &hit, Matched: true})
			// Consume exactly this instance; duplicates stay available.
			pool = append(pool[:idx], pool[idx+1:]...)
			continue
		}

		if len(pool) == 0 {
			matches = append(matches, models.MatchOutcome{
				Expected: exp,
				Matched:  false,
				Details:  "no actual calls to match against",
			})
			continue
		}

		// No match: attach the closest pool element for diagnostics.
		// The near-miss is not consumed.
		best := closest(exp, pool)
		matches = append(matches, models.MatchOutcome{
			Expected: exp,
			Actual:   &best,
			Matched:  false,
			Details:  diffDetails(exp, best),
		})
	}

	allMatched := true
	for _, m := range matches {
		if !m.Matched {
			allMatched = false
			break
		}
	}

	passed := allMatched && (e.IgnoreExtraCalls || len(pool) == 0)

	if !e.IgnoreExtraCalls {
		for i := range pool {
			leftover := pool[i]
			matches = append(matches, models.MatchOutcome{
				Expected: models.NewCall(leftoverName, nil),
				Actual:   &leftover,
				Matched:  false,
				Details:  fmt.Sprintf("unexpected extra tool call: %s", leftover.Name),
			})
		}
	}

	return models.Verdict{Passed: passed, Expected: expected, Actual: actual, Matches: matches}
}

// evaluateOrdered compares expected i directly against actual i.
func (e *ExactEvaluator) evaluateOrdered(expected, actual []models.Call) models.Verdict {
	matches := make([]models.MatchOutcome, 0, len(expected))
	allMatched := true

	for i, exp := range expected {
		if i >= len(actual) {
			matches = append(matches, models.MatchOutcome{
				Expected: exp,
				Matched:  false,
				Details:  fmt.Sprintf("position %d: no actual call at this index", i),
			})
			allMatched = false
			continue
		}

		candidate := actual[i]
		if e.isMatch(exp, candidate) {
			matches = append(matches, models.MatchOutcome{Expected: exp, Actual: &candidate, Matched: true})
			continue
		}

		matches = append(matches, models.MatchOutcome{
			Expected: exp,
			Actual:   &candidate,
			Matched:  false,
			Details:  fmt.Sprintf("position %d: %s", i, diffDetails(exp, candidate)),
		})
		allMatched = false
	}

	leftovers := []models.Call{}
	if len(actual) > len(expected) {
		leftovers = actual[len(expected):]
	}

	passed := allMatched && (e.IgnoreExtraCalls || len(leftovers) == 0)

	if !e.IgnoreExtraCalls {
		for i := range leftovers {
			leftover := leftovers[i]
			matches = append(matches, models.MatchOutcome{
				Expected: models.NewCall(leftoverName, nil),
				Actual:   &leftover,
				Matched:  false,
				Details:  fmt.Sprintf("unexpected extra tool call: %s", leftover.Name),
			})
		}
	}

	return models.Verdict{Passed: passed, Expected: expected, Actual: actual, Matches: matches}
}

// isMatch checks whether an actual call satisfies the expected one under the
// configured argument comparison.
func (e *ExactEvaluator) isMatch(expected, actual models.Call) bool {
	if expected.Name != actual.Name {
		return false
	}
	if e.IgnoreExtraArgs {
		return argsSubset(expected.Arguments, actual.Arguments)
	}
	return expected.Equal(actual)
}

// argsSubset reports whether every expected key is present in actual with a
// deeply equal value; actual may carry additional keys.
func argsSubset(expected, actual map[string]any) bool {
	for k, v := range expected {
		av, ok := actual[k]
		if !ok || !reflect.DeepEqual(v, av) {
			return false
		}
	}
	return true
}

// Distance weights for diagnostic best-match selection. A name mismatch
// ranks worse than any single argument problem.
const (
	nameMismatchCost = 10
	missingArgCost   = 2
	wrongValueCost   = 1
)

// distance scores how far an actual call is from the expected one.
func distance(expected, actual models.Call) int {
	d := 0
	if expected.Name != actual.Name {
		d += nameMismatchCost
	}
	for k, v := range expected.Arguments {
		av, ok := actual.Arguments[k]
		switch {
		case !ok:
			d += missingArgCost
		case !reflect.DeepEqual(v, av):
			d += wrongValueCost
		}
	}
	return d
}

// closest returns the pool element with the minimal distance to expected,
// ties broken by pool order. The pool must be non-empty.
func closest(expected models.Call, pool []models.Call) models.Call {
	best := pool[0]
	bestDist := distance(expected, best)
	for _, candidate := range pool[1:] {
		if d := distance(expected, candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

// diffDetails generates a human-readable diff between an expected call and
// the nearest actual call, listing the name mismatch and every missing or
// wrong-valued argument key.
func diffDetails(expected, actual models.Call) string {
	var diffs []string
	if expected.Name != actual.Name {
		diffs = append(diffs, fmt.Sprintf("name: expected '%s', got '%s'", expected.Name, actual.Name))
	}

	keys := make([]string, 0, len(expected.Arguments))
	for k := range expected.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := expected.Arguments[k]
		av, ok := actual.Arguments[k]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("arg '%s': missing (expected %v)", k, formatValue(v)))
		case !reflect.DeepEqual(v, av):
			diffs = append(diffs, fmt.Sprintf("arg '%s': expected %v, got %v", k, formatValue(v), formatValue(av)))
		}
	}

	if len(diffs) == 0 {
		return "unknown mismatch"
	}
	return strings.Join(diffs, "; ")
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("'%s'", s)
	}
	return fmt.Sprintf("%v", v)
}
