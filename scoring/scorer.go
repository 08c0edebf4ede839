// Package scoring contains the per-unit scoring strategies and the fallback
// chain that composes them. Scorers never return transport errors to the
// pipeline: any internal failure becomes an Unavailable result and the chain
// falls through to the next tier.
package scoring

import "cybershield/types"

// Result is the tagged outcome of scoring one unit: either a probability with
// the tier that produced it, or an unavailable sentinel with a reason.
type Result struct {
	Prob      float64
	Method    types.Method
	Available bool
	Reason    string
}

// Scored builds an available result.
func Scored(prob float64, method types.Method) Result {
	return Result{Prob: prob, Method: method, Available: true}
}

// Unavailable builds a sentinel result carrying the failure reason.
func Unavailable(reason string) Result {
	return Result{Available: false, Reason: reason}
}

// UnitScorer scores a single image unit by file path.
type UnitScorer interface {
	Score(framePath string) Result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
