// Package orchestration executes a batch of prompt runs concurrently and
// aggregates the results into a BatchVerdict.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/russolabs/russo/internal/evaluate"
	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/pipeline"
	"github.com/russolabs/russo/internal/statistics"
)

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventBatchStart    EventType = "batch_start"
	EventBatchComplete EventType = "batch_complete"
	EventRunStart      EventType = "run_start"
	EventRunComplete   EventType = "run_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	Prompt     string
	RunNum     int
	TotalRuns  int
	UnitNum    int
	TotalUnits int
	Status     models.Status
	DurationMs int64
}

// BatchRequest describes one batch: which prompts to run, how many times
// each, and with which collaborators.
type BatchRequest struct {
	Prompts  []string
	Runs     int
	// MaxConcurrency bounds in-flight runs. 0 means unbounded.
	MaxConcurrency int

	Synthesizer pipeline.Synthesizer
	Agent       pipeline.Agent
	Evaluator   evaluate.Evaluator
	Expected    []models.Call
}

// BatchRunner executes BatchRequests. Safe for reuse across batches.
type BatchRunner struct {
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// NewBatchRunner creates a new batch runner
func NewBatchRunner() *BatchRunner {
	return &BatchRunner{listeners: []ProgressListener{}}
}

// OnProgress registers a progress listener
func (r *BatchRunner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *BatchRunner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// RunBatch runs every (prompt, run index) unit of the request, at most
// MaxConcurrency at a time, and returns the aggregated verdict. Results come
// back in declaration order: prompts in request order, run indexes ascending
// within each prompt, regardless of completion order.
//
// A collaborator error fails only its own unit: the unit is recorded with
// StatusError and the error message, and sibling units proceed.
func (r *BatchRunner) RunBatch(ctx context.Context, req BatchRequest) (models.BatchVerdict, error) {
	if req.Runs < 1 {
		return models.BatchVerdict{}, fmt.Errorf("runs must be >= 1, got %d", req.Runs)
	}
	if req.Synthesizer == nil || req.Agent == nil || req.Evaluator == nil {
		return models.BatchVerdict{}, fmt.Errorf("synthesizer, agent and evaluator are required")
	}

	type unit struct {
		prompt   string
		runIndex int
	}

	units := make([]unit, 0, len(req.Prompts)*req.Runs)
	for _, prompt := range req.Prompts {
		for i := 0; i < req.Runs; i++ {
			units = append(units, unit{prompt: prompt, runIndex: i})
		}
	}

	runID := uuid.NewString()
	total := len(units)
	r.notifyProgress(ProgressEvent{EventType: EventBatchStart, TotalUnits: total, TotalRuns: req.Runs})
	slog.Debug("batch starting", "run_id", runID, "units", total, "max_concurrency", req.MaxConcurrency)

	records := make([]models.RunRecord, total)

	g, gctx := errgroup.WithContext(ctx)
	if req.MaxConcurrency > 0 {
		g.SetLimit(req.MaxConcurrency)
	}

	for i, u := range units {
		g.Go(func() error {
			r.notifyProgress(ProgressEvent{
				EventType:  EventRunStart,
				Prompt:     u.prompt,
				RunNum:     u.runIndex + 1,
				TotalRuns:  req.Runs,
				UnitNum:    i + 1,
				TotalUnits: total,
			})

			start := time.Now()
			verdict, err := pipeline.Run(gctx, u.prompt, req.Synthesizer, req.Agent, req.Evaluator, req.Expected)
			elapsed := time.Since(start).Milliseconds()

			rec := models.RunRecord{
				Prompt:     u.prompt,
				RunIndex:   u.runIndex,
				DurationMs: elapsed,
			}
			switch {
			case err != nil:
				rec.Status = models.StatusError
				rec.ErrorMsg = err.Error()
				// Keep the expectations on the record so reports can show
				// what the errored run was supposed to produce.
				rec.Verdict = models.Verdict{Expected: req.Expected}
			case verdict.Passed:
				rec.Status = models.StatusPassed
				rec.Verdict = verdict
			default:
				rec.Status = models.StatusFailed
				rec.Verdict = verdict
			}
			records[i] = rec

			r.notifyProgress(ProgressEvent{
				EventType:  EventRunComplete,
				Prompt:     u.prompt,
				RunNum:     u.runIndex + 1,
				TotalRuns:  req.Runs,
				UnitNum:    i + 1,
				TotalUnits: total,
				Status:     rec.Status,
				DurationMs: elapsed,
			})
			return nil
		})
	}

	// Units never return errors, so Wait only reflects ctx cancellation
	// through the work each unit recorded.
	_ = g.Wait()

	verdict := models.BatchVerdict{RunID: runID, Runs: records}
	if req.Runs >= 2 {
		verdict.Stats = computeStats(verdict)
	}

	r.notifyProgress(ProgressEvent{EventType: EventBatchComplete, TotalUnits: total, TotalRuns: req.Runs})
	slog.Debug("batch complete", "run_id", runID, "passed", verdict.PassedCount(), "failed", verdict.FailedCount())

	return verdict, nil
}

// computeStats derives cross-run statistics from the per-run match rates.
func computeStats(v models.BatchVerdict) *models.BatchStats {
	rates := v.MatchRates()
	ci := statistics.BootstrapCI(rates, 0.95)
	passRate := v.PassRate()
	return &models.BatchStats{
		StdDevMatchRate: models.ComputeStdDev(rates),
		Flaky:           passRate > 0 && passRate < 1,
		CI95Lo:          ci.Lower,
		CI95Hi:          ci.Upper,
	}
}
