package pipeline

import (
	"math"
	"testing"

	"cybershield/types"
)

func TestCombineFrameWeights(t *testing.T) {
	// 0.6*fakeProb + 0.3*artifact, +0.1 when no face
	got := CombineFrame(0.5, 0.5, true)
	want := 0.45
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CombineFrame(0.5, 0.5, true) = %v, want %v", got, want)
	}

	withPenalty := CombineFrame(0.5, 0.5, false)
	if math.Abs(withPenalty-(want+0.1)) > 1e-9 {
		t.Errorf("no-face penalty not applied: got %v", withPenalty)
	}
}

func TestCombineFrameBounds(t *testing.T) {
	cases := []struct {
		fakeProb, artifact float64
		hasFace            bool
	}{
		{0, 0, true},
		{1, 1, false},
		{1, 1, true},
		{0.999, 0.999, false},
	}
	for _, c := range cases {
		got := CombineFrame(c.fakeProb, c.artifact, c.hasFace)
		if got < 0 || got > 1 {
			t.Errorf("CombineFrame(%v, %v, %v) = %v, out of [0,1]", c.fakeProb, c.artifact, c.hasFace, got)
		}
	}
}

func TestCombineScoresPreservesOrder(t *testing.T) {
	scores := []types.UnitScore{
		{FrameIndex: 0, FakeProb: 0.1, ArtifactScore: 0.1, HasFace: true},
		{FrameIndex: 1, FakeProb: 0.9, ArtifactScore: 0.9, HasFace: true},
		{FrameIndex: 2, FakeProb: 0.5, ArtifactScore: 0.5, HasFace: true},
	}
	combined := CombineScores(scores)
	if len(combined) != 3 {
		t.Fatalf("expected 3 combined scores, got %d", len(combined))
	}
	if !(combined[0] < combined[2] && combined[2] < combined[1]) {
		t.Errorf("combined order broken: %v", combined)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	if got != 0.0 {
		t.Errorf("Aggregate(nil) = %v, want exactly 0.0", got)
	}
	if Verdict(got) {
		t.Error("empty aggregate must not be a fake verdict")
	}
}

func TestAggregateMean(t *testing.T) {
	got := Aggregate([]float64{0.2, 0.4, 0.6})
	want := 40.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Aggregate = %v, want %v", got, want)
	}
}

func TestAggregateBounds(t *testing.T) {
	if got := Aggregate([]float64{1, 1, 1}); got > 100 {
		t.Errorf("Aggregate exceeds 100: %v", got)
	}
	if got := Aggregate([]float64{0, 0}); got < 0 {
		t.Errorf("Aggregate below 0: %v", got)
	}
}

func TestVerdictThresholdIsStrict(t *testing.T) {
	if Verdict(50.0) {
		t.Error("score exactly at threshold must not be fake")
	}
	if !Verdict(50.001) {
		t.Error("score above threshold must be fake")
	}
	if Verdict(49.999) {
		t.Error("score below threshold must not be fake")
	}
}

func TestAggregateDeterministic(t *testing.T) {
	in := []float64{0.13, 0.77, 0.42, 0.91}
	first := Aggregate(in)
	for i := 0; i < 10; i++ {
		if got := Aggregate(in); got != first {
			t.Fatalf("Aggregate not deterministic: %v != %v", got, first)
		}
	}
}
