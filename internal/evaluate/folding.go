package evaluate

import (
	"strings"

	"github.com/russolabs/russo/internal/models"
)

// FoldingEvaluator wraps ExactEvaluator with Unicode case folding applied to
// call names and string argument values before comparison. Useful against
// agents that echo user-typed entity names with inconsistent casing.
type FoldingEvaluator struct {
	ExactEvaluator
}

// NewFoldingEvaluator returns a case-insensitive evaluator. Lenient by
// default: expected arguments are treated as a subset and extra calls are
// tolerated.
func NewFoldingEvaluator() *FoldingEvaluator {
	return &FoldingEvaluator{ExactEvaluator: ExactEvaluator{
		IgnoreExtraArgs:  true,
		IgnoreExtraCalls: true,
	}}
}

// Evaluate folds both sides and delegates to the exact algorithm. The
// returned Verdict reports the folded calls so diagnostics stay consistent
// with what was actually compared.
func (f *FoldingEvaluator) Evaluate(expected, actual []models.Call) models.Verdict {
	return f.ExactEvaluator.Evaluate(foldCalls(expected), foldCalls(actual))
}

func foldCalls(calls []models.Call) []models.Call {
	folded := make([]models.Call, len(calls))
	for i, c := range calls {
		folded[i] = models.Call{
			Name:      strings.ToLower(c.Name),
			Arguments: foldValue(c.Arguments).(map[string]any),
		}
	}
	return folded
}

// foldValue lowercases strings recursively through maps and slices, leaving
// other value kinds untouched.
func foldValue(v any) any {
	switch tv := v.(type) {
	case string:
		return strings.ToLower(tv)
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, val := range tv {
			out[k] = foldValue(val)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, val := range tv {
			out[i] = foldValue(val)
		}
		return out
	default:
		return v
	}
}
