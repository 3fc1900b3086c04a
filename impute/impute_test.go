package impute

import (
	"math/rand/v2"
	"testing"
	"time"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/features"
	"github.com/invertedv/housing/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nRows = 40

func testDF() *d.DF {
	ts := make([]time.Time, nRows)
	price, full, usd := make([]float64, nRows), make([]float64, nRows), make([]float64, nRows)
	rooms, month, state := make([]int, nRows), make([]int, nRows), make([]int, nRows)
	pt, area := make([]string, nRows), make([]string, nRows)
	for ind := 0; ind < nRows; ind++ {
		ts[ind] = time.Date(2013, 1, 1+ind, 0, 0, 0, 0, time.UTC)
		price[ind] = 100 + 10*float64(ind)
		full[ind] = 20 + float64(ind)
		usd[ind] = 30 + float64(ind%7)
		rooms[ind] = 1 + ind%4
		month[ind] = ind % 2
		state[ind] = 1 + ind%4
		pt[ind] = "OwnerOccupier"
		if ind%3 == 0 {
			pt[ind] = "Investment"
		}

		area[ind] = "a"
	}

	tsC, _ := d.NewCol(ts, d.DTdate, d.ColName(schema.TimeKey))
	priceC, _ := d.NewCol(price, d.DTfloat, d.ColName(schema.Target))
	fullC, _ := d.NewCol(full, d.DTfloat, d.ColName(schema.FullSq))
	roomC, _ := d.NewCol(rooms, d.DTint, d.ColName(schema.NumRoom))
	usdC, _ := d.NewCol(usd, d.DTfloat, d.ColName(schema.USDRUB))
	monthC, _ := d.NewCol(month, d.DTint, d.ColName(features.MonthPrefix+"3"))
	stateI, _ := d.NewCol(state, d.DTint, d.ColName(schema.State))
	ptS, _ := d.NewCol(pt, d.DTstring, d.ColName(schema.ProductType))
	areaC, _ := d.NewCol(area, d.DTstring, d.ColName("sub_area"))

	for _, row := range []int{3, 10, 25} {
		_ = fullC.SetMissing(row)
	}

	_ = roomC.SetMissing(5)
	_ = roomC.SetMissing(17)
	_ = usdC.SetMissing(2)
	_ = stateI.SetMissing(7)
	_ = stateI.SetMissing(30)
	_ = ptS.SetMissing(12)

	stateC, _ := d.Categorical(stateI, nil)
	ptC, _ := d.Categorical(ptS, nil)

	df, e := d.NewDF(tsC, priceC, fullC, roomC, usdC, monthC, stateC, ptC, areaC)
	if e != nil {
		panic(e)
	}

	return df
}

func TestMask(t *testing.T) {
	m := NewMask([]string{"a", "b", "c"})
	assert.False(t, m.Get("a", "a"))
	assert.True(t, m.Get("a", "b"))
	assert.Equal(t, []string{"a", "c"}, m.Predictors("b"))

	require.Nil(t, m.ExcludePredictor("c"))
	assert.Equal(t, []string{"b"}, m.Predictors("a"))
	assert.Equal(t, []string{"a", "b"}, m.Predictors("c"))

	assert.NotNil(t, m.Set("a", "a", true))
	assert.NotNil(t, m.Set("a", "z", true))
	assert.NotNil(t, m.ExcludePredictor("z"))
	assert.Nil(t, m.Predictors("z"))
}

func TestConfigure(t *testing.T) {
	df := testDF()
	ex := DefaultExclusions(features.DefaultWindows)
	cfg, e := Configure(df, ex)
	require.Nil(t, e)

	assert.Equal(t, PMM, cfg.Method(schema.FullSq))
	assert.Equal(t, PMM, cfg.Method(schema.NumRoom))
	assert.Equal(t, PMM, cfg.Method(schema.USDRUB))
	assert.Equal(t, PolyReg, cfg.Method(schema.State))
	assert.Equal(t, LogReg, cfg.Method(schema.ProductType))
	for _, cn := range []string{schema.TimeKey, schema.Target, "month_3", "sub_area"} {
		assert.Equal(t, "", cfg.Method(cn), cn)
	}

	assert.Equal(t, []string{schema.FullSq, schema.NumRoom, schema.USDRUB, schema.State, schema.ProductType},
		cfg.Targets())

	for _, target := range df.ColumnNames() {
		for _, pred := range []string{schema.TimeKey, schema.Target, schema.USDRUB, "month_3", "sub_area"} {
			assert.False(t, cfg.Mask.Get(target, pred), "%s predicts %s", pred, target)
		}
	}

	assert.Equal(t, []string{schema.NumRoom, schema.State, schema.ProductType}, cfg.Mask.Predictors(schema.FullSq))
	assert.Equal(t, []string{schema.FullSq, schema.NumRoom, schema.State, schema.ProductType},
		cfg.Mask.Predictors(schema.USDRUB))

	require.Nil(t, cfg.Check(ex))
	require.Nil(t, cfg.Mask.Set(schema.FullSq, schema.Target, true))
	assert.ErrorIs(t, cfg.Check(ex), d.ErrLeakageGuard)
}

func TestConfigure_Errors(t *testing.T) {
	df := testDF()
	_ = df.Column("sub_area").SetMissing(0)
	_, e := Configure(df, DefaultExclusions(features.DefaultWindows))
	assert.NotNil(t, e)
}

func TestConfigure_NoObserved(t *testing.T) {
	df := testDF()
	full := df.Column(schema.FullSq)
	for row := 0; row < full.Len(); row++ {
		_ = full.SetMissing(row)
	}

	cfg, e := Configure(df, DefaultExclusions(features.DefaultWindows))
	require.Nil(t, e)
	assert.Equal(t, "", cfg.Method(schema.FullSq))
	assert.NotContains(t, cfg.Targets(), schema.FullSq)
	for _, target := range df.ColumnNames() {
		assert.False(t, cfg.Mask.Get(target, schema.FullSq), target)
	}

	draws, e := NewImputer(2, 2, 7).Run(df, cfg)
	require.Nil(t, e)
	for _, dr := range draws {
		assert.Equal(t, nRows, dr.Column(schema.FullSq).Missing())
		assert.Equal(t, 0, dr.Column(schema.NumRoom).Missing())
		assert.Equal(t, 0, dr.Column(schema.State).Missing())
	}
}

func TestRun(t *testing.T) {
	df := testDF()
	cfg, e := Configure(df, DefaultExclusions(features.DefaultWindows))
	require.Nil(t, e)

	imp := NewImputer(3, 2, 42)
	draws, e := imp.Run(df, cfg)
	require.Nil(t, e)
	require.Len(t, draws, 2)

	for _, dr := range draws {
		assert.Equal(t, df.ColumnNames(), dr.ColumnNames())
		for _, cn := range df.ColumnNames() {
			orig, imputed := df.Column(cn), dr.Column(cn)
			assert.Equal(t, 0, imputed.Missing(), cn)
			assert.Equal(t, orig.DataType(), imputed.DataType())

			observed := make(map[any]bool)
			for row := 0; row < orig.Len(); row++ {
				if !orig.IsMissing(row) {
					assert.Equal(t, orig.Element(row), imputed.Element(row))
					observed[orig.Element(row)] = true
				}
			}

			// pmm only ever copies observed values
			if cfg.Method(cn) == PMM {
				for row := 0; row < orig.Len(); row++ {
					assert.True(t, observed[imputed.Element(row)], cn)
				}
			}

			if orig.DataType() == d.DTcategorical {
				for _, code := range imputed.AsInt() {
					assert.True(t, code >= 0 && code < len(orig.CategoryMap()))
				}
			}
		}
	}

	// input untouched
	assert.Equal(t, 3, df.Column(schema.FullSq).Missing())

	again, e := imp.Run(df, cfg)
	require.Nil(t, e)
	for k := range draws {
		assert.True(t, draws[k].Equal(again[k]))
	}
}

func TestRun_Errors(t *testing.T) {
	df := testDF()
	cfg, _ := Configure(df, DefaultExclusions(features.DefaultWindows))

	_, e := NewImputer(0, 2, 1).Run(df, cfg)
	assert.NotNil(t, e)

	_, e = NewImputer(1, 1, 1).Run(testDF().Copy(), &Config{Mask: NewMask([]string{"x"}), Methods: cfg.Methods})
	assert.NotNil(t, e)

	// nothing to impute from
	full := df.Column(schema.FullSq)
	for row := 0; row < full.Len(); row++ {
		_ = full.SetMissing(row)
	}

	cfg, _ = Configure(df, DefaultExclusions(features.DefaultWindows))
	cfg.Methods[schema.FullSq] = PMM
	_, e = NewImputer(1, 1, 1).Run(df, cfg)
	assert.NotNil(t, e)

	// logreg on a three-level column
	df = testDF()
	cfg, _ = Configure(df, DefaultExclusions(features.DefaultWindows))
	cfg.Methods[schema.State] = LogReg
	_, e = NewImputer(1, 1, 1).Run(df, cfg)
	assert.NotNil(t, e)
}

func TestNearest(t *testing.T) {
	sorted := []float64{1, 2, 3, 10, 11}
	assert.Equal(t, []int{2, 1, 0}, nearest(sorted, 2.6, 3))
	assert.Equal(t, []int{4, 3, 2}, nearest(sorted, 50, 3))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, nearest(sorted, -5, 10))
}

func TestDraw(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	for ind := 0; ind < 20; ind++ {
		assert.Equal(t, 1, draw(rng, []float64{0, 1, 0}, []int{5, 5, 5}))
		assert.Equal(t, 2, draw(rng, []float64{0, 0, 0}, []int{0, 0, 3}))
	}
}
