package scoring

import (
	"testing"

	"cybershield/types"
)

// fakeScorer is a scripted UnitScorer for chain tests.
type fakeScorer struct {
	result Result
	calls  int
}

func (f *fakeScorer) Score(framePath string) Result {
	f.calls++
	return f.result
}

func TestResolveFirstAvailableWins(t *testing.T) {
	first := &fakeScorer{result: Scored(0.9, types.MethodRemoteAPI)}
	second := &fakeScorer{result: Scored(0.1, types.MethodHeuristic)}

	res := NewResolver(first, second).Resolve("frame.jpg")
	if !res.Available || res.Prob != 0.9 || res.Method != types.MethodRemoteAPI {
		t.Errorf("unexpected result: %+v", res)
	}
	if second.calls != 0 {
		t.Error("fallback tier must not run when the primary succeeds")
	}
}

func TestResolveFallsThroughOnUnavailable(t *testing.T) {
	remote := &fakeScorer{result: Unavailable("no token")}
	heuristic := &fakeScorer{result: Scored(0.3, types.MethodHeuristic)}

	r := NewResolver(remote, heuristic)
	for i := 0; i < 5; i++ {
		res := r.Resolve("frame.jpg")
		if !res.Available || res.Method != types.MethodHeuristic {
			t.Fatalf("expected heuristic fallback, got %+v", res)
		}
	}
	if remote.calls != 5 {
		t.Errorf("remote tried %d times, want 5 (once per unit, no retries)", remote.calls)
	}
	if heuristic.calls != 5 {
		t.Errorf("heuristic ran %d times, want 5", heuristic.calls)
	}
}

func TestResolveAllUnavailableReturnsNeutral(t *testing.T) {
	r := NewResolver(&fakeScorer{result: Unavailable("down")}, &fakeScorer{result: Unavailable("down too")})

	res := r.Resolve("frame.jpg")
	if !res.Available {
		t.Fatal("resolver must always produce an available result")
	}
	if res.Prob != 0.5 || res.Method != types.MethodHeuristic {
		t.Errorf("expected neutral 0.5 heuristic, got %+v", res)
	}
}

func TestResolveEmptyChainReturnsNeutral(t *testing.T) {
	res := NewResolver().Resolve("frame.jpg")
	if !res.Available || res.Prob != 0.5 {
		t.Errorf("expected neutral result from empty chain, got %+v", res)
	}
}
