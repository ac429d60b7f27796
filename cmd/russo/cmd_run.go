package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/russolabs/russo/internal/audiocache"
	"github.com/russolabs/russo/internal/config"
	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/orchestration"
	"github.com/russolabs/russo/internal/pipeline"
	"github.com/russolabs/russo/internal/report"
)

var (
	runsOverride        int
	concurrencyOverride int
	outputPath          string
	htmlReportPath      string
	enableCache         bool
	disableCache        bool
	cacheDir            string
	scenarioFilters     []string
	verbose             bool
)

const defaultCacheDir = ".russo-cache"

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run a test suite against a voice agent",
		Long: `Run a test suite from a suite file.

The suite file defines the synthesizer, the agent under test, and scenarios
pairing spoken prompts with expected tool calls.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().IntVar(&runsOverride, "runs", 0, "Repetitions per prompt (overrides suite config)")
	cmd.Flags().IntVar(&concurrencyOverride, "max-concurrency", 0, "Concurrent runs (overrides suite config, 0 = unbounded)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for results")
	cmd.Flags().StringVar(&htmlReportPath, "report", "", "Output HTML report file")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Enable the audio cache even if the suite disables it")
	cmd.Flags().BoolVar(&disableCache, "no-cache", false, "Disable the audio cache")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Audio cache directory (default: "+defaultCacheDir+")")
	cmd.Flags().StringArrayVar(&scenarioFilters, "scenario", nil, "Run only the named scenario (can be repeated)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-run progress")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	suite, err := config.LoadSuite(args[0])
	if err != nil {
		return err
	}

	scenarios, err := selectScenarios(suite)
	if err != nil {
		return err
	}

	synth, err := config.BuildSynthesizer(suite.Synthesizer)
	if err != nil {
		return err
	}
	synth, err = maybeWrapCache(suite, synth)
	if err != nil {
		return err
	}

	agent, err := config.BuildAgent(suite.Agent)
	if err != nil {
		return err
	}
	suiteEvaluator, err := config.BuildEvaluator(suite.Evaluator)
	if err != nil {
		return err
	}

	runner := orchestration.NewBatchRunner()
	runner.OnProgress(progressPrinter())

	reporter := report.NewReporter()
	started := time.Now()

	fmt.Printf("Suite: %s (%d scenarios)\n", suite.Name, len(scenarios))

	for _, sc := range scenarios {
		evaluator := suiteEvaluator
		if sc.Evaluator != nil {
			evaluator, err = config.BuildEvaluator(sc.Evaluator)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.ID, err)
			}
		}

		req := orchestration.BatchRequest{
			Prompts:        sc.AllPrompts(),
			Runs:           effectiveRuns(suite, sc),
			MaxConcurrency: effectiveConcurrency(suite, sc),
			Synthesizer:    synth,
			Agent:          agent,
			Evaluator:      evaluator,
			Expected:       sc.ExpectedCalls(),
		}

		verdict, err := runner.RunBatch(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", sc.ID, err)
		}
		reporter.Add(sc.ID, verdict)
	}

	fmt.Printf("\nCompleted in %s\n\n", time.Since(started).Round(time.Millisecond))
	reporter.WriteSummary(os.Stdout)

	if outputPath != "" {
		if err := writeJSONResults(outputPath, suite.Name, reporter); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", outputPath)
	}
	if htmlReportPath != "" {
		if err := reporter.WriteHTML(htmlReportPath); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", htmlReportPath)
	}

	if !reporter.Passed() {
		total, _, failed := reporter.Totals()
		return &TestFailureError{Message: fmt.Sprintf("%d of %d runs failed", failed, total)}
	}
	return nil
}

func selectScenarios(suite *config.Suite) ([]config.Scenario, error) {
	if len(scenarioFilters) == 0 {
		return suite.Scenarios, nil
	}
	var out []config.Scenario
	for _, id := range scenarioFilters {
		sc, ok := suite.ScenarioByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", id)
		}
		out = append(out, sc)
	}
	return out, nil
}

func effectiveRuns(suite *config.Suite, sc config.Scenario) int {
	if runsOverride > 0 {
		return runsOverride
	}
	return suite.EffectiveRuns(sc)
}

func effectiveConcurrency(suite *config.Suite, sc config.Scenario) int {
	if concurrencyOverride > 0 {
		return concurrencyOverride
	}
	return suite.EffectiveConcurrency(sc)
}

// maybeWrapCache applies the cache policy: flags override the suite file.
func maybeWrapCache(suite *config.Suite, synth pipeline.Synthesizer) (pipeline.Synthesizer, error) {
	useCache := suite.Cache.On()
	if enableCache {
		useCache = true
	}
	if disableCache {
		useCache = false
	}
	if !useCache {
		return synth, nil
	}

	dir := cacheDir
	if dir == "" {
		dir = suite.Cache.Dir
	}
	if dir == "" {
		dir = defaultCacheDir
	}

	c, err := audiocache.New(dir)
	if err != nil {
		return nil, err
	}

	var extra map[string]string
	if p, ok := synth.(config.KeyExtraProvider); ok {
		extra = p.KeyExtra()
	}
	return audiocache.NewCachedSynthesizer(synth, c, extra), nil
}

func progressPrinter() orchestration.ProgressListener {
	return func(e orchestration.ProgressEvent) {
		if !verbose {
			return
		}
		switch e.EventType {
		case orchestration.EventRunStart:
			fmt.Printf("  [%d/%d] %q run %d/%d...\n", e.UnitNum, e.TotalUnits, e.Prompt, e.RunNum, e.TotalRuns)
		case orchestration.EventRunComplete:
			fmt.Printf("  [%d/%d] %q run %d/%d: %s (%dms)\n", e.UnitNum, e.TotalUnits, e.Prompt, e.RunNum, e.TotalRuns, e.Status, e.DurationMs)
		}
	}
}

// jsonResults is the --output file format.
type jsonResults struct {
	Suite     string              `json:"suite"`
	Timestamp time.Time           `json:"timestamp"`
	Passed    bool                `json:"passed"`
	Scenarios []jsonScenarioEntry `json:"scenarios"`
}

type jsonScenarioEntry struct {
	ID      string              `json:"id"`
	Verdict models.BatchVerdict `json:"verdict"`
}

func writeJSONResults(path, suiteName string, reporter *report.Reporter) error {
	out := jsonResults{
		Suite:     suiteName,
		Timestamp: time.Now().UTC(),
		Passed:    reporter.Passed(),
	}
	for _, res := range reporter.Results() {
		out.Scenarios = append(out.Scenarios, jsonScenarioEntry{ID: res.Name, Verdict: res.Verdict})
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
