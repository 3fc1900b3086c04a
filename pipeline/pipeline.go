// Package pipeline runs the whole analysis: project, derive, split, clean, factorize, impute, stack,
// save and fit the models.
package pipeline

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/clean"
	"github.com/invertedv/housing/config"
	"github.com/invertedv/housing/features"
	"github.com/invertedv/housing/impute"
	"github.com/invertedv/housing/models"
	"github.com/invertedv/housing/schema"
	"github.com/invertedv/housing/split"
	"github.com/invertedv/housing/store"
)

// partitions
const (
	Train = "train"
	Test  = "test"
)

// Score is the test-set performance of a model fit on the stacked train table.
type Score struct {
	Model    string
	MSE      float64
	MAERatio float64
}

// Result is everything a run produces.
type Result struct {
	RunID string

	// Stacked are the stacked, imputed partitions keyed by Train and Test.
	Stacked map[string]*d.DF
	// Cleaning are the values each cleaning rule changed, by partition.
	Cleaning map[string][]clean.Count
	// Impute is the imputation configuration, by partition.
	Impute map[string]*impute.Config

	// Unimputed are the columns that still have missing values after imputation because a partition
	// had no observed values. The models leave them out.
	Unimputed []string

	Scores []Score
	// Search are the elastic net trials, scored on a validation set held out of train.
	Search []models.Trial
}

// Run executes the pipeline described by cfg.
func Run(cfg *config.Config, log *zap.Logger) (*Result, error) {
	res := &Result{
		RunID:    uuid.NewString(),
		Stacked:  make(map[string]*d.DF),
		Cleaning: make(map[string][]clean.Count),
		Impute:   make(map[string]*impute.Config),
	}
	log = log.With(zap.String("run", res.RunID))

	var (
		tx, mac, wide *d.DF
		e             error
	)
	if tx, mac, e = Load(cfg); e != nil {
		return nil, e
	}

	log.Info("loaded", zap.Int("transactions", tx.RowCount()), zap.Int("macro", mac.RowCount()))

	if wide, e = features.Derive(tx, mac, cfg.Features.Windows); e != nil {
		return nil, fmt.Errorf("deriving features: %w", e)
	}

	log.Info("derived", zap.Int("rows", wide.RowCount()), zap.Int("columns", wide.ColumnCount()))

	parts := make(map[string]*d.DF)
	if parts[Train], parts[Test], e = split.Split(wide, cfg.Split.TrainFrac, cfg.Split.Seed); e != nil {
		return nil, e
	}

	log.Info("split", zap.Int(Train, parts[Train].RowCount()), zap.Int(Test, parts[Test].RowCount()))

	rules := clean.Rules(cfg.Clean.MinBuildYear, cfg.Clean.MaxBuildYear)
	for _, part := range []string{Train, Test} {
		var counts []clean.Count
		if parts[part], counts, e = clean.Clean(parts[part], rules...); e != nil {
			return nil, fmt.Errorf("cleaning %s: %w", part, e)
		}

		res.Cleaning[part] = counts
		for _, c := range counts {
			log.Info("cleaned", zap.String("partition", part), zap.String("rule", c.Rule), zap.Int("changed", c.Changed))
		}
	}

	if parts[Train], parts[Test], e = split.Factor(parts[Train], parts[Test], schema.Categoricals()...); e != nil {
		return nil, e
	}

	ex := impute.DefaultExclusions(cfg.Features.Windows)
	imp := impute.NewImputer(cfg.Impute.Iterations, cfg.Impute.Draws, cfg.Impute.Seed)
	for _, part := range []string{Train, Test} {
		var icfg *impute.Config
		if icfg, e = impute.Configure(parts[part], ex); e != nil {
			return nil, fmt.Errorf("configuring imputation of %s: %w", part, e)
		}

		if e = icfg.Check(ex); e != nil {
			return nil, e
		}

		res.Impute[part] = icfg
		for _, tn := range icfg.Targets() {
			log.Debug("imputing", zap.String("partition", part), zap.String("column", tn),
				zap.String("method", icfg.Method(tn)), zap.Int("missing", parts[part].Column(tn).Missing()))
		}

		var draws []*d.DF
		if draws, e = imp.Run(parts[part], icfg); e != nil {
			return nil, fmt.Errorf("imputing %s: %w", part, e)
		}

		if res.Stacked[part], e = split.Stack(draws); e != nil {
			return nil, e
		}

		log.Info("stacked", zap.String("partition", part), zap.Int("draws", len(draws)),
			zap.Int("rows", res.Stacked[part].RowCount()))
	}

	if e = Save(cfg, res, log); e != nil {
		return nil, e
	}

	if e = fit(cfg, res, log); e != nil {
		return nil, e
	}

	return res, nil
}

// Load reads and projects the transaction and macro tables.
func Load(cfg *config.Config) (tx, mac *d.DF, err error) {
	if tx, err = schema.Load(cfg.Data.Transactions, schema.Transactions()); err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", cfg.Data.Transactions, err)
	}

	if mac, err = schema.Load(cfg.Data.Macro, schema.Macro()); err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", cfg.Data.Macro, err)
	}

	return tx, mac, nil
}

// Save writes the stacked tables as CSV to cfg.Output.CSVDir and to the database of cfg.Store. Either
// is skipped if not configured.
func Save(cfg *config.Config, res *Result, log *zap.Logger) error {
	if dir := cfg.Output.CSVDir; dir != "" {
		if e := os.MkdirAll(dir, 0o755); e != nil {
			return e
		}

		for part, df := range res.Stacked {
			fileName := filepath.Join(dir, fmt.Sprintf("%s_stacked.csv", part))
			if e := d.SaveCSV(df, fileName); e != nil {
				return fmt.Errorf("writing %s: %w", fileName, e)
			}

			log.Info("wrote csv", zap.String("file", fileName))
		}
	}

	if cfg.Store.Dialect == "" {
		return nil
	}

	var (
		dlct *d.Dialect
		e    error
	)
	if dlct, e = store.Connect(cfg.Store); e != nil {
		return e
	}
	defer func() { _ = dlct.Close() }()

	for part, df := range res.Stacked {
		table := store.TableName(cfg.Store.Table, part, res.RunID)
		if e := dlct.Save(table, split.DrawCol, true, df); e != nil {
			return fmt.Errorf("saving %s: %w", table, e)
		}

		log.Info("saved table", zap.String("dialect", dlct.DialectName()), zap.String("table", table))
	}

	return nil
}

// ***************** Models *****************

// fit fits each model on the stacked train table and scores it once on the stacked test table. The
// elastic net's parameters come from tune, which sees only train.
func fit(cfg *config.Config, res *Result, log *zap.Logger) error {
	res.Unimputed = incomplete(res.Stacked[Train], res.Stacked[Test])
	if len(res.Unimputed) > 0 {
		log.Info("left out of models, no observed values", zap.Strings("columns", res.Unimputed))
	}

	exclude := append([]string{split.DrawCol}, res.Unimputed...)

	var (
		train, test *models.Matrix
		e           error
	)
	if train, e = models.Design(res.Stacked[Train], schema.Target, exclude...); e != nil {
		return e
	}

	if test, e = models.Design(res.Stacked[Test], schema.Target, exclude...); e != nil {
		return e
	}

	if strings.Join(train.Names, ",") != strings.Join(test.Names, ",") {
		return fmt.Errorf("train and test design columns differ")
	}

	if res.Search, e = tune(cfg, train, cfg.Impute.Draws); e != nil {
		return e
	}

	best := res.Search[0].Params
	log.Info("search", zap.Int("trials", len(res.Search)), zap.Float64("alpha", best["alpha"]),
		zap.Float64("l1Ratio", best["l1Ratio"]), zap.Float64("validationMSE", res.Search[0].Score))

	candidates := []struct {
		name string
		m    models.Model
	}{
		{"ols", models.NewOLS()},
		{"huber", models.NewHuber()},
		{"elastic net", models.NewElasticNet(best["alpha"], best["l1Ratio"])},
	}

	for _, c := range candidates {
		s := Score{Model: c.name}
		if e = c.m.Fit(train.X, train.Y); e != nil {
			return fmt.Errorf("fitting %s: %w", c.name, e)
		}

		if s.MSE, s.MAERatio, e = evaluate(c.m, test.X, test.Y); e != nil {
			return fmt.Errorf("scoring %s: %w", c.name, e)
		}

		res.Scores = append(res.Scores, s)
		log.Info("scored", zap.String("model", s.Model), zap.Float64("mse", s.MSE), zap.Float64("maeRatio", s.MAERatio))
	}

	return nil
}

// tune runs the random search over the elastic net's parameters. A seeded search.validFrac share of the
// sales in the stacked train matrix is held out and every trial is scored by MSE on it. train holds
// draws stacked one after the other, so a sale is on the same side in every draw.
func tune(cfg *config.Config, train *models.Matrix, draws int) ([]models.Trial, error) {
	rows, _ := train.X.Dims()
	if draws < 1 || rows%draws != 0 {
		return nil, fmt.Errorf("%d stacked rows do not split into %d draws", rows, draws)
	}

	n := rows / draws
	nValid := int(math.Round(cfg.Search.ValidFrac * float64(n)))
	if nValid < 1 || nValid >= n {
		return nil, fmt.Errorf("validation set of %d from %d train rows is empty or leaves nothing to fit", nValid, n)
	}

	rng := rand.New(rand.NewPCG(cfg.Search.Seed, cfg.Search.Seed+1))
	held := make([]bool, n)
	for _, row := range rng.Perm(n)[:nValid] {
		held[row] = true
	}

	var fitRows, validRows []int
	for row := 0; row < rows; row++ {
		if held[row%n] {
			validRows = append(validRows, row)
			continue
		}

		fitRows = append(fitRows, row)
	}

	xFit, yFit := models.Rows(train.X, fitRows), pick(train.Y, fitRows)
	xValid, yValid := models.Rows(train.X, validRows), pick(train.Y, validRows)

	eval := func(p models.Params) (float64, error) {
		m := models.NewElasticNet(p["alpha"], p["l1Ratio"])
		if e := m.Fit(xFit, yFit); e != nil {
			return 0, e
		}

		mse, _, e := evaluate(m, xValid, yValid)
		return mse, e
	}

	return models.RandomSearch(cfg.Search.Trials, cfg.Search.Patience, rng, models.ElasticNetSpace, eval)
}

// evaluate returns the MSE and MAE ratio of the fitted m on x, y.
func evaluate(m models.Model, x *mat.Dense, y []float64) (mse, maeRatio float64, err error) {
	var yhat []float64
	if yhat, err = m.Predict(x); err != nil {
		return 0, 0, err
	}

	if mse, err = models.MSE(y, yhat); err != nil {
		return 0, 0, err
	}

	if maeRatio, err = models.MAERatio(y, yhat); err != nil {
		return 0, 0, err
	}

	return mse, maeRatio, nil
}

// incomplete returns the columns with missing values in any of dfs, in the column order of the first.
func incomplete(dfs ...*d.DF) []string {
	var names []string
	for c := dfs[0].Next(true); c != nil; c = dfs[0].Next(false) {
		for _, df := range dfs {
			if dc := df.Column(c.Name()); dc != nil && dc.Missing() > 0 {
				names = append(names, c.Name())
				break
			}
		}
	}

	return names
}

func pick[T any](x []T, rows []int) []T {
	out := make([]T, len(rows))
	for ind, row := range rows {
		out[ind] = x[row]
	}

	return out
}

// Describe returns a summary of every column of the projected transaction and macro tables.
func Describe(cfg *config.Config) (string, error) {
	var (
		tx, mac *d.DF
		e       error
	)
	if tx, mac, e = Load(cfg); e != nil {
		return "", e
	}

	var sb strings.Builder
	for _, df := range []*d.DF{tx, mac} {
		for c := df.Next(true); c != nil; c = df.Next(false) {
			sb.WriteString(c.String())
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// ScoreTable formats the scores one model per line.
func ScoreTable(scores []Score) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %16s %10s\n", "model", "mse", "mae ratio"))
	for _, s := range scores {
		sb.WriteString(fmt.Sprintf("%-12s %16.6g %10.4f\n", s.Model, s.MSE, s.MAERatio))
	}

	return sb.String()
}
