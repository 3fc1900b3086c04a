package impute

import (
	"fmt"
	"math/rand/v2"
	"sort"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/models"
	"gonum.org/v1/gonum/mat"
)

// Imputer runs chained-equations imputation. Draw k uses its own random stream seeded by (Seed, k), so
// results are reproducible.
type Imputer struct {
	Iterations int
	Draws      int
	Seed       uint64

	// Donors is the number of closest observed rows pmm picks from.
	Donors int
	// Ridge inflates the diagonal of X'X in the pmm regressions.
	Ridge float64
}

func NewImputer(iterations, draws int, seed uint64) *Imputer {
	return &Imputer{Iterations: iterations, Draws: draws, Seed: seed, Donors: 5, Ridge: 1e-5}
}

// Run returns Draws completed copies of df. df is not changed. Columns without a method are passed
// through unchanged.
func (imp *Imputer) Run(df *d.DF, cfg *Config) ([]*d.DF, error) {
	if imp.Iterations < 1 || imp.Draws < 1 {
		return nil, fmt.Errorf("need at least one iteration and one draw, got %d and %d", imp.Iterations, imp.Draws)
	}

	if imp.Donors < 1 {
		return nil, fmt.Errorf("need at least one donor, got %d", imp.Donors)
	}

	if !sameNames(df.ColumnNames(), cfg.Mask.Names()) {
		return nil, fmt.Errorf("imputation mask does not match table columns")
	}

	targets := cfg.Targets()
	obs, mis := make(map[string][]int), make(map[string][]int)
	for _, tn := range targets {
		tc := df.Column(tn)
		if e := checkMethod(tc, cfg.Method(tn)); e != nil {
			return nil, e
		}

		for row := 0; row < tc.Len(); row++ {
			if tc.IsMissing(row) {
				mis[tn] = append(mis[tn], row)
				continue
			}

			obs[tn] = append(obs[tn], row)
		}

		if len(obs[tn]) == 0 {
			return nil, fmt.Errorf("column %s has no observed values to impute from", tn)
		}
	}

	var draws []*d.DF
	for k := 0; k < imp.Draws; k++ {
		rng := rand.New(rand.NewPCG(imp.Seed, uint64(k)))
		work := df.Copy()

		// start from random observed values
		for _, tn := range targets {
			tc := work.Column(tn)
			for _, row := range mis[tn] {
				if e := tc.Set(row, tc.Vector, obs[tn][rng.IntN(len(obs[tn]))]); e != nil {
					return nil, e
				}
			}
		}

		for iter := 0; iter < imp.Iterations; iter++ {
			for _, tn := range targets {
				if len(mis[tn]) == 0 {
					continue
				}

				if e := imp.step(rng, work, cfg, tn, obs[tn], mis[tn]); e != nil {
					return nil, fmt.Errorf("draw %d, iteration %d, column %s: %w", k+1, iter+1, tn, e)
				}
			}
		}

		draws = append(draws, work)
	}

	return draws, nil
}

// step re-imputes the missing rows of target from the current values of its predictors.
func (imp *Imputer) step(rng *rand.Rand, work *d.DF, cfg *Config, target string, obs, mis []int) error {
	var preds []*d.Col
	for _, pn := range cfg.Mask.Predictors(target) {
		preds = append(preds, work.Column(pn))
	}

	var (
		x *mat.Dense
		e error
	)
	if x, _, e = models.Predictors(preds, work.RowCount()); e != nil {
		return e
	}

	tc := work.Column(target)
	switch cfg.Method(target) {
	case PMM:
		return imp.pmm(rng, x, tc, obs, mis)
	case LogReg, PolyReg:
		return imp.categorical(rng, x, tc, obs, mis)
	}

	return fmt.Errorf("unknown method %s", cfg.Method(target))
}

// ***************** Methods *****************

// pmm fits the observed rows, then refits on a bootstrap sample of them to predict the missing rows.
// Each missing row takes the value of an observed row drawn from the Donors with the closest fitted value.
func (imp *Imputer) pmm(rng *rand.Rand, x *mat.Dense, tc *d.Col, obs, mis []int) error {
	xObs := models.Rows(x, obs)
	yObs := values(tc, obs)

	var (
		fitObs, fitMis []float64
		e              error
	)
	ols := &models.OLS{Ridge: imp.Ridge}
	if e = ols.Fit(xObs, yObs); e != nil {
		return e
	}

	if fitObs, e = ols.Predict(xObs); e != nil {
		return e
	}

	boot := bootstrap(rng, len(obs))
	olsBoot := &models.OLS{Ridge: imp.Ridge}
	if e = olsBoot.Fit(models.Rows(xObs, boot), pick(yObs, boot)); e != nil {
		return e
	}

	if fitMis, e = olsBoot.Predict(models.Rows(x, mis)); e != nil {
		return e
	}

	order := make([]int, len(fitObs))
	for ind := range order {
		order[ind] = ind
	}

	sort.SliceStable(order, func(i, j int) bool { return fitObs[order[i]] < fitObs[order[j]] })
	sorted := pick(fitObs, order)

	for ind, row := range mis {
		donors := nearest(sorted, fitMis[ind], imp.Donors)
		donor := obs[order[donors[rng.IntN(len(donors))]]]
		if e := tc.Set(row, tc.Vector, donor); e != nil {
			return e
		}
	}

	return nil
}

// categorical fits a one-vs-rest logistic regression per level on a bootstrap sample of the observed rows
// and draws each missing row's level from the normalized probabilities. Two-level columns need one fit.
func (imp *Imputer) categorical(rng *rand.Rand, x *mat.Dense, tc *d.Col, obs, mis []int) error {
	boot := pick(obs, bootstrap(rng, len(obs)))
	xBoot := models.Rows(x, boot)
	xMis := models.Rows(x, mis)
	codes := pick(tc.AsInt(), boot)

	nLevels := len(tc.CategoryMap())
	counts := make([]int, nLevels)
	for _, c := range codes {
		counts[c]++
	}

	probs := make([][]float64, len(mis))
	for ind := range probs {
		probs[ind] = make([]float64, nLevels)
	}

	for lvl := 0; lvl < nLevels; lvl++ {
		if nLevels == 2 && lvl == 0 {
			continue
		}

		var p []float64
		switch counts[lvl] {
		case 0:
			p = make([]float64, len(mis))
		case len(codes):
			p = constant(1, len(mis))
		default:
			y := make([]float64, len(codes))
			for ind, c := range codes {
				if c == lvl {
					y[ind] = 1
				}
			}

			lr := models.NewLogistic()
			if e := lr.Fit(xBoot, y); e != nil {
				return e
			}

			var e error
			if p, e = lr.Predict(xMis); e != nil {
				return e
			}
		}

		for ind := range mis {
			probs[ind][lvl] = p[ind]
			if nLevels == 2 {
				probs[ind][0] = 1 - p[ind]
			}
		}
	}

	for ind, row := range mis {
		if e := tc.SetInt(draw(rng, probs[ind], counts), row); e != nil {
			return e
		}
	}

	return nil
}

// ***************** Helpers *****************

func checkMethod(tc *d.Col, method string) error {
	switch method {
	case PMM:
		if tc.DataType() != d.DTfloat && tc.DataType() != d.DTint {
			return fmt.Errorf("pmm needs a float or int column, %s is %s", tc.Name(), tc.DataType())
		}
	case LogReg, PolyReg:
		if tc.DataType() != d.DTcategorical {
			return fmt.Errorf("%s needs a categorical column, %s is %s", method, tc.Name(), tc.DataType())
		}

		if method == LogReg && len(tc.CategoryMap()) > 2 {
			return fmt.Errorf("logreg needs at most two levels, %s has %d", tc.Name(), len(tc.CategoryMap()))
		}
	default:
		return fmt.Errorf("unknown method %s for column %s", method, tc.Name())
	}

	return nil
}

// draw picks a level with probability proportional to probs. If every probability is zero it picks
// among the levels observed, in proportion to their counts.
func draw(rng *rand.Rand, probs []float64, counts []int) int {
	total := 0.0
	for _, p := range probs {
		total += p
	}

	weights := probs
	if total <= 0 {
		weights = make([]float64, len(counts))
		for lvl, c := range counts {
			weights[lvl] = float64(c)
			total += float64(c)
		}
	}

	u := rng.Float64() * total
	for lvl, w := range weights {
		if u < w {
			return lvl
		}

		u -= w
	}

	// rounding: take the last level with weight
	for lvl := len(weights) - 1; lvl >= 0; lvl-- {
		if weights[lvl] > 0 {
			return lvl
		}
	}

	return 0
}

// nearest returns the positions in sorted of the k values closest to target.
func nearest(sorted []float64, target float64, k int) []int {
	k = min(k, len(sorted))
	hi := sort.SearchFloat64s(sorted, target)
	lo := hi - 1

	out := make([]int, 0, k)
	for len(out) < k {
		switch {
		case lo < 0:
			out = append(out, hi)
			hi++
		case hi >= len(sorted):
			out = append(out, lo)
			lo--
		case target-sorted[lo] <= sorted[hi]-target:
			out = append(out, lo)
			lo--
		default:
			out = append(out, hi)
			hi++
		}
	}

	return out
}

func bootstrap(rng *rand.Rand, n int) []int {
	rows := make([]int, n)
	for ind := range rows {
		rows[ind] = rng.IntN(n)
	}

	return rows
}

func pick[T any](x []T, rows []int) []T {
	out := make([]T, len(rows))
	for ind, row := range rows {
		out[ind] = x[row]
	}

	return out
}

func values(tc *d.Col, rows []int) []float64 {
	out := make([]float64, len(rows))
	for ind, row := range rows {
		out[ind], _ = tc.ElementFloat(row)
	}

	return out
}

func constant(val float64, n int) []float64 {
	out := make([]float64, n)
	for ind := range out {
		out[ind] = val
	}

	return out
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for ind := range a {
		if a[ind] != b[ind] {
			return false
		}
	}

	return true
}
