package models

import (
	"fmt"
	"math"
	"strings"
)

// Status represents the outcome status of a single run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	// StatusError marks runs whose synthesizer or agent raised an error
	// before a verdict could be produced.
	StatusError Status = "error"
)

// RunRecord is one pipeline execution inside a batch. RunIndex disambiguates
// repeated runs of the same prompt.
type RunRecord struct {
	Prompt     string  `json:"prompt"`
	RunIndex   int     `json:"run_index"`
	Status     Status  `json:"status"`
	Verdict    Verdict `json:"verdict"`
	DurationMs int64   `json:"duration_ms"`
	// ErrorMsg is set when Status == StatusError.
	ErrorMsg string `json:"error_msg,omitempty"`
}

// Passed reports whether the run produced a passing verdict.
func (r RunRecord) Passed() bool {
	return r.Status == StatusPassed
}

// MatchRate is the run's verdict match rate. Errored runs score 0: no
// expected call was satisfied, so an error must never read as a vacuous pass.
func (r RunRecord) MatchRate() float64 {
	if r.Status == StatusError {
		return 0.0
	}
	return r.Verdict.MatchRate()
}

// BatchStats holds aggregate statistics computed when a batch has enough
// runs to make them meaningful.
type BatchStats struct {
	StdDevMatchRate float64 `json:"std_dev_match_rate"`
	Flaky           bool    `json:"flaky"`
	CI95Lo          float64 `json:"ci95_lo"`
	CI95Hi          float64 `json:"ci95_hi"`
}

// BatchVerdict collects the RunRecords of a concurrent batch together with
// derived aggregates. All derived values are order-independent.
type BatchVerdict struct {
	RunID string      `json:"run_id"`
	Runs  []RunRecord `json:"runs"`
	Stats *BatchStats `json:"stats,omitempty"`
}

// Total returns the number of runs in the batch.
func (b BatchVerdict) Total() int { return len(b.Runs) }

// PassedCount returns how many runs passed.
func (b BatchVerdict) PassedCount() int {
	passed := 0
	for _, r := range b.Runs {
		if r.Passed() {
			passed++
		}
	}
	return passed
}

// FailedCount returns how many runs did not pass (failures and errors).
func (b BatchVerdict) FailedCount() int {
	return b.Total() - b.PassedCount()
}

// Passed is true only when every run in the batch passed. An empty batch
// passes vacuously.
func (b BatchVerdict) Passed() bool {
	return b.PassedCount() == b.Total()
}

// PassRate is the fraction of runs that passed, 1.0 for an empty batch.
func (b BatchVerdict) PassRate() float64 {
	if b.Total() == 0 {
		return 1.0
	}
	return float64(b.PassedCount()) / float64(b.Total())
}

// MatchRate is the mean of the per-run match rates, 1.0 for an empty batch.
func (b BatchVerdict) MatchRate() float64 {
	if b.Total() == 0 {
		return 1.0
	}
	total := 0.0
	for _, r := range b.Runs {
		total += r.MatchRate()
	}
	return total / float64(b.Total())
}

// MatchRates returns the per-run match rates in run order.
func (b BatchVerdict) MatchRates() []float64 {
	rates := make([]float64, 0, len(b.Runs))
	for _, r := range b.Runs {
		rates = append(rates, r.MatchRate())
	}
	return rates
}

// ByPrompt groups run records by prompt text. This is a reporting
// projection; the records themselves stay flat.
func (b BatchVerdict) ByPrompt() map[string][]RunRecord {
	grouped := make(map[string][]RunRecord)
	for _, r := range b.Runs {
		grouped[r.Prompt] = append(grouped[r.Prompt], r)
	}
	return grouped
}

// Summary renders a per-prompt breakdown followed by the batch totals.
func (b BatchVerdict) Summary() string {
	status := "FAILED"
	if b.Passed() {
		status = "PASSED"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Batch %s: %d/%d runs passed (%.0f%% pass rate, %.0f%% mean match rate)",
		status, b.PassedCount(), b.Total(), b.PassRate()*100, b.MatchRate()*100))

	// Stable iteration: prompts in first-seen order.
	var prompts []string
	seen := make(map[string]bool)
	for _, r := range b.Runs {
		if !seen[r.Prompt] {
			seen[r.Prompt] = true
			prompts = append(prompts, r.Prompt)
		}
	}

	grouped := b.ByPrompt()
	for _, prompt := range prompts {
		records := grouped[prompt]
		passed := 0
		for _, r := range records {
			if r.Passed() {
				passed++
			}
		}
		lines = append(lines, fmt.Sprintf("  %q: %d/%d passed", prompt, passed, len(records)))
		for _, r := range records {
			if r.Passed() {
				continue
			}
			if r.Status == StatusError {
				lines = append(lines, fmt.Sprintf("    run %d errored: %s", r.RunIndex, r.ErrorMsg))
				continue
			}
			lines = append(lines, fmt.Sprintf("    run %d:", r.RunIndex))
			for _, vl := range strings.Split(r.Verdict.Summary(), "\n") {
				lines = append(lines, "      "+vl)
			}
		}
	}

	return strings.Join(lines, "\n")
}

// ComputeStdDev returns the population standard deviation of values.
func ComputeStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(n))
}
