package models

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Params are the hyperparameters of one trial.
type Params map[string]float64

// Trial is one evaluated draw of a random search.
type Trial struct {
	Index  int
	Params Params
	Score  float64
}

// RandomSearch evaluates up to trials parameter sets drawn by sample. It stops early once patience
// consecutive trials fail to improve on the best score. Lower scores are better. The trials are
// returned sorted by score, best first.
func RandomSearch(trials, patience int, rng *rand.Rand, sample func(rng *rand.Rand) Params,
	eval func(p Params) (float64, error)) ([]Trial, error) {
	if trials < 1 {
		return nil, fmt.Errorf("need at least one trial, got %d", trials)
	}

	if patience < 1 {
		patience = trials
	}

	var out []Trial
	best, stale := math.Inf(1), 0
	for ind := 0; ind < trials && stale < patience; ind++ {
		p := sample(rng)

		var (
			score float64
			e     error
		)
		if score, e = eval(p); e != nil {
			return nil, fmt.Errorf("trial %d: %w", ind, e)
		}

		out = append(out, Trial{Index: ind, Params: p, Score: score})

		if score < best {
			best, stale = score, 0
			continue
		}

		stale++
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })

	return out, nil
}

// ElasticNetSpace draws alpha log-uniformly from [1e-4, 10] and the L1 ratio uniformly from [0, 1].
func ElasticNetSpace(rng *rand.Rand) Params {
	return Params{
		"alpha":   math.Pow(10, -4+5*rng.Float64()),
		"l1Ratio": rng.Float64(),
	}
}
