// Package report renders batch results for humans: a terminal summary table
// and an HTML report.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/russolabs/russo/internal/models"
)

// Result is one named batch outcome accumulated into a Reporter.
type Result struct {
	Name    string
	Verdict models.BatchVerdict
}

// Reporter accumulates scenario results and renders them. Construct one per
// run and pass it along; there is no global instance.
type Reporter struct {
	results []Result
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Add records a named batch result. Order of addition is preserved.
func (r *Reporter) Add(name string, verdict models.BatchVerdict) {
	r.results = append(r.results, Result{Name: name, Verdict: verdict})
}

// Results returns the accumulated results in insertion order.
func (r *Reporter) Results() []Result {
	return r.results
}

// Totals sums run counts across every accumulated result.
func (r *Reporter) Totals() (total, passed, failed int) {
	for _, res := range r.results {
		total += res.Verdict.Total()
		passed += res.Verdict.PassedCount()
		failed += res.Verdict.FailedCount()
	}
	return total, passed, failed
}

// Passed reports whether every accumulated run passed.
func (r *Reporter) Passed() bool {
	for _, res := range r.results {
		if !res.Verdict.Passed() {
			return false
		}
	}
	return true
}

// WriteSummary renders the summary table to w.
func (r *Reporter) WriteSummary(w io.Writer) {
	width := terminalWidth()
	sep := strings.Repeat("─", width)

	nameWidth := 8
	for _, res := range r.results {
		if rw := runewidth.StringWidth(res.Name); rw > nameWidth {
			nameWidth = rw
		}
	}
	if max := width - 30; nameWidth > max && max > 8 {
		nameWidth = max
	}

	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "%s  %6s  %6s  %10s\n", padRight("SCENARIO", nameWidth), "RUNS", "PASS", "MATCH RATE")
	fmt.Fprintln(w, sep)

	for _, res := range r.results {
		v := res.Verdict
		fmt.Fprintf(w, "%s  %6d  %6d  %9.0f%%\n",
			padRight(truncateName(res.Name, nameWidth), nameWidth),
			v.Total(), v.PassedCount(), v.MatchRate()*100)

		if v.Stats != nil && v.Stats.Flaky {
			fmt.Fprintf(w, "%s  flaky: CI95 [%.2f, %.2f]\n",
				padRight("", nameWidth), v.Stats.CI95Lo, v.Stats.CI95Hi)
		}
		for _, errMsg := range runErrors(v) {
			fmt.Fprintf(w, "%s  error: %s\n", padRight("", nameWidth), errMsg)
		}
	}

	fmt.Fprintln(w, sep)
	total, passed, failed := r.Totals()
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s: %d runs, %d passed, %d failed\n", status, total, passed, failed)
}

// Summary renders the summary table as a string.
func (r *Reporter) Summary() string {
	var sb strings.Builder
	r.WriteSummary(&sb)
	return sb.String()
}

// runErrors collects distinct error messages from errored runs.
func runErrors(v models.BatchVerdict) []string {
	seen := map[string]bool{}
	for _, run := range v.Runs {
		if run.Status == models.StatusError && run.ErrorMsg != "" {
			seen[run.ErrorMsg] = true
		}
	}
	msgs := make([]string, 0, len(seen))
	for m := range seen {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return msgs
}

const fallbackWidth = 80

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return fallbackWidth
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
