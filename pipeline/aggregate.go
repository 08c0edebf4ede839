package pipeline

import (
	"cybershield/config"
	"cybershield/types"
)

// CombineFrame folds one frame's signals into a single [0,1] score: the
// resolved fake probability, the always-computed heuristic artifact score, and
// a small constant penalty when no face is detected.
func CombineFrame(fakeProb, artifactScore float64, hasFace bool) float64 {
	combined := config.RemoteWeight*fakeProb + config.ArtifactWeight*artifactScore
	if !hasFace {
		combined += config.NoFacePenalty
	}
	return clamp(combined, 0, 1)
}

// CombineScores maps a run's unit scores to their per-frame combined values,
// preserving order.
func CombineScores(scores []types.UnitScore) []float64 {
	combined := make([]float64, len(scores))
	for i, s := range scores {
		combined[i] = CombineFrame(s.FakeProb, s.ArtifactScore, s.HasFace)
	}
	return combined
}

// Aggregate reduces per-frame combined scores to the overall authenticity
// score: arithmetic mean scaled to [0,100], clamped. An empty sequence yields
// exactly 0.0.
func Aggregate(combined []float64) float64 {
	if len(combined) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range combined {
		sum += s
	}
	return clamp(100*sum/float64(len(combined)), 0, 100)
}

// Verdict applies the fixed fake threshold.
func Verdict(overallScore float64) bool {
	return overallScore > config.FakeThreshold
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
