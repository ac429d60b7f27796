package models

import (
	"strings"
	"testing"
)

func TestVerdictMatchRate_EmptyExpected(t *testing.T) {
	v := Verdict{Passed: true}
	if got := v.MatchRate(); got != 1.0 {
		t.Errorf("expected vacuous match rate 1.0, got %f", got)
	}
}

func TestVerdictMatchRate_Partial(t *testing.T) {
	expected := []Call{NewCall("f", nil), NewCall("g", nil)}
	actual := NewCall("f", nil)
	v := Verdict{
		Passed:   false,
		Expected: expected,
		Actual:   []Call{actual},
		Matches: []MatchOutcome{
			{Expected: expected[0], Actual: &actual, Matched: true},
			{Expected: expected[1], Matched: false, Details: "no actual calls to match against"},
		},
	}
	if got := v.MatchRate(); got != 0.5 {
		t.Errorf("expected match rate 0.5, got %f", got)
	}
}

func TestVerdictSummary_Failed(t *testing.T) {
	expected := NewCall("book_flight", map[string]any{"from": "NYC"})
	actual := NewCall("book_hotel", map[string]any{"city": "NYC"})
	v := Verdict{
		Passed:   false,
		Expected: []Call{expected},
		Actual:   []Call{actual},
		Matches: []MatchOutcome{
			{Expected: expected, Actual: &actual, Matched: false, Details: "name: expected 'book_flight', got 'book_hotel'"},
		},
	}

	s := v.Summary()
	if !strings.Contains(s, "FAILED") {
		t.Errorf("summary missing FAILED status: %s", s)
	}
	if !strings.Contains(s, "0% match rate") {
		t.Errorf("summary missing match rate: %s", s)
	}
	if !strings.Contains(s, "book_flight") || !strings.Contains(s, "book_hotel") {
		t.Errorf("summary missing call names: %s", s)
	}
	if !strings.Contains(s, "name: expected") {
		t.Errorf("summary missing diagnostic detail: %s", s)
	}
}

func TestVerdictSummary_PassedShowsNoMatchMarker(t *testing.T) {
	expected := NewCall("f", nil)
	v := Verdict{
		Passed:   false,
		Expected: []Call{expected},
		Matches:  []MatchOutcome{{Expected: expected, Matched: false}},
	}
	if !strings.Contains(v.Summary(), "(no match)") {
		t.Errorf("summary should mark absent actual: %s", v.Summary())
	}
}
