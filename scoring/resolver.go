package scoring

import (
	"github.com/rs/zerolog"

	"cybershield/logging"
	"cybershield/types"
)

// Resolver walks an ordered chain of scorers, taking the first available
// result. The chain is evaluated once per unit with no retries: a remote
// failure costs one fallback, not a retry loop. The terminal tier must be
// infallible.
type Resolver struct {
	chain  []UnitScorer
	logger zerolog.Logger
}

// NewResolver builds a resolver over the given chain, tried in order.
func NewResolver(chain ...UnitScorer) *Resolver {
	return &Resolver{
		chain:  chain,
		logger: logging.WithComponent("resolver"),
	}
}

// DefaultChain is the production ordering: remote classifier first, local
// heuristic as the guaranteed fallback.
func DefaultChain(remote *RemoteClassifier, heuristic *HeuristicScorer) *Resolver {
	return NewResolver(remote, heuristic)
}

// Resolve returns the first available score and the tier that produced it.
// When every tier is unavailable (a misconfigured chain), the neutral 0.5 is
// returned under the heuristic tag so a single unit can never sink a run.
func (r *Resolver) Resolve(framePath string) Result {
	for _, scorer := range r.chain {
		res := scorer.Score(framePath)
		if res.Available {
			return res
		}
		r.logger.Debug().Str("frame", framePath).Str("reason", res.Reason).
			Msg("scorer unavailable, falling through")
	}
	return Scored(0.5, types.MethodHeuristic)
}
