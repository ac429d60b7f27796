package evaluate

import "github.com/russolabs/russo/internal/models"

// AssertError carries a failing Verdict across an error boundary so callers
// embedding the harness in their own test suites can fail with the full
// diagnostic summary.
type AssertError struct {
	Verdict models.Verdict
}

func (e *AssertError) Error() string {
	return e.Verdict.Summary()
}

// Assert runs the evaluator and converts a failing verdict into an error.
// A passing verdict returns (verdict, nil).
func Assert(ev Evaluator, expected, actual []models.Call) (models.Verdict, error) {
	verdict := ev.Evaluate(expected, actual)
	if !verdict.Passed {
		return verdict, &AssertError{Verdict: verdict}
	}
	return verdict, nil
}
