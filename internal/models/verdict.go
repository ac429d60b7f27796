package models

import (
	"fmt"
	"strings"
)

// MatchOutcome pairs one expected call with the actual call (if any) it was
// compared against. Created by an evaluator, never mutated afterwards.
type MatchOutcome struct {
	Expected Call   `json:"expected"`
	Actual   *Call  `json:"actual,omitempty"`
	Matched  bool   `json:"matched"`
	Details  string `json:"details,omitempty"`
}

// Verdict is the full evaluation result for one pipeline execution.
type Verdict struct {
	Passed   bool           `json:"passed"`
	Expected []Call         `json:"expected"`
	Actual   []Call         `json:"actual"`
	Matches  []MatchOutcome `json:"matches"`
}

// MatchRate returns the fraction of expected calls that found a satisfying
// actual call. An empty expectation list is a vacuous success (1.0).
func (v Verdict) MatchRate() float64 {
	if len(v.Expected) == 0 {
		return 1.0
	}
	matched := 0
	for _, m := range v.Matches {
		if m.Matched {
			matched++
		}
	}
	return float64(matched) / float64(len(v.Expected))
}

// Summary renders a human-readable multi-line report: overall status and
// match rate, then one line per expectation with its paired actual call and
// any diagnostic detail.
func (v Verdict) Summary() string {
	status := "FAILED"
	if v.Passed {
		status = "PASSED"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%s (%.0f%% match rate)", status, v.MatchRate()*100))

	for _, m := range v.Matches {
		icon := "-"
		if m.Matched {
			icon = "+"
		}
		actualStr := " -> (no match)"
		if m.Actual != nil {
			actualStr = " -> " + m.Actual.String()
		}
		lines = append(lines, fmt.Sprintf("  [%s] %s%s", icon, m.Expected.String(), actualStr))
		if m.Details != "" {
			lines = append(lines, "      "+m.Details)
		}
	}

	return strings.Join(lines, "\n")
}
