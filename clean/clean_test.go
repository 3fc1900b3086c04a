package clean

import (
	"testing"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wide() *d.DF {
	full, _ := d.NewCol([]float64{0, 40, 50, 60, 70, 80}, d.DTfloat, d.ColName(schema.FullSq))
	life, _ := d.NewCol([]float64{30, 50, 20, 10, 10, 90}, d.DTfloat, d.ColName(schema.LifeSq))
	kitch, _ := d.NewCol([]float64{5, 45, 5, 61, 7, 8}, d.DTfloat, d.ColName(schema.KitchSq))
	floor, _ := d.NewCol([]int{5, 1, 2, 3, 5, 9}, d.DTint, d.ColName(schema.Floor))
	maxFloor, _ := d.NewCol([]int{3, 9, 9, 9, 5, 12}, d.DTint, d.ColName(schema.MaxFloor))
	year, _ := d.NewCol([]int{1859, 1860, 2018, 2019, 0, 1975}, d.DTint, d.ColName(schema.BuildYear))
	state, _ := d.NewCol([]int{33, 1, 3, 4, 2, 33}, d.DTint, d.ColName(schema.State))

	_ = full.SetMissing(5)
	_ = floor.SetMissing(2)
	_ = year.SetMissing(5)

	df, e := d.NewDF(full, life, kitch, floor, maxFloor, year, state)
	if e != nil {
		panic(e)
	}

	return df
}

func TestClean_Examples(t *testing.T) {
	in := wide()
	out, counts, e := Clean(in)
	require.Nil(t, e)
	require.Len(t, counts, 6)

	// full_sq 0 -> null
	assert.True(t, out.Column(schema.FullSq).IsMissing(0))

	// state 33 -> 3
	assert.Equal(t, []int{3, 1, 3, 4, 2, 3}, out.Column(schema.State).AsInt())

	// floor 5, max floor 3 -> max floor null, floor stays 5
	assert.True(t, out.Column(schema.MaxFloor).IsMissing(0))
	assert.Equal(t, 5, out.Column(schema.Floor).Element(0))

	// rows are never dropped and the input is untouched
	assert.Equal(t, in.RowCount(), out.RowCount())
	assert.False(t, in.Column(schema.FullSq).IsMissing(0))
	assert.Equal(t, 33, in.Column(schema.State).Element(0))
}

func TestClean_Order(t *testing.T) {
	out, counts, e := Clean(wide())
	require.Nil(t, e)

	// row 0: full_sq nulled by rule 1, so life_sq 30 > 0 is never tested
	assert.Equal(t, 30.0, out.Column(schema.LifeSq).Element(0))
	assert.Equal(t, 5.0, out.Column(schema.KitchSq).Element(0))

	// row 5: full_sq missing on input, life_sq 90 survives
	assert.Equal(t, 90.0, out.Column(schema.LifeSq).Element(5))

	// row 2: floor missing, max_floor survives
	assert.Equal(t, 9, out.Column(schema.MaxFloor).Element(2))

	assert.True(t, out.Column(schema.LifeSq).IsMissing(1))
	assert.True(t, out.Column(schema.KitchSq).IsMissing(1))
	assert.True(t, out.Column(schema.KitchSq).IsMissing(3))

	// build year bounds are inclusive
	by := out.Column(schema.BuildYear)
	assert.True(t, by.IsMissing(0))
	assert.Equal(t, 1860, by.Element(1))
	assert.Equal(t, 2018, by.Element(2))
	assert.True(t, by.IsMissing(3))
	assert.True(t, by.IsMissing(4))

	assert.Equal(t, []Count{
		{"zero full_sq", 1},
		{"life_sq above full_sq", 1},
		{"kitch_sq above full_sq", 2},
		{"max_floor below floor", 1},
		{"build_year out of range", 3},
		{"state 33", 2},
	}, counts)
}

func TestClean_Invariants(t *testing.T) {
	out, _, e := Clean(wide())
	require.Nil(t, e)

	full := out.Column(schema.FullSq)
	for row := 0; row < out.RowCount(); row++ {
		for _, area := range []string{schema.LifeSq, schema.KitchSq} {
			c, _ := d.Compare(out.Column(area).Vector, row, ">", full.Vector)
			assert.NotEqual(t, d.True, c)
		}

		c, _ := d.Compare(out.Column(schema.MaxFloor).Vector, row, "<", out.Column(schema.Floor).Vector)
		assert.NotEqual(t, d.True, c)

		if y, ok := out.Column(schema.BuildYear).ElementInt(row); ok {
			assert.True(t, y >= MinBuildYear && y <= MaxBuildYear)
		}
	}
}

func TestClean_Idempotent(t *testing.T) {
	once, _, e := Clean(wide())
	require.Nil(t, e)

	twice, counts, e := Clean(once)
	require.Nil(t, e)
	assert.True(t, once.Equal(twice))

	for _, c := range counts {
		assert.Equal(t, 0, c.Changed, c.Rule)
	}
}

func TestClean_Errors(t *testing.T) {
	df := wide()
	_ = df.DropColumns(schema.KitchSq)
	_, _, e := Clean(df)
	assert.ErrorIs(t, e, d.ErrSchema)

	df = wide()
	_ = df.AppendColumn(stringCol(df.Column(schema.State)), true)
	_, _, e = Clean(df)
	assert.NotNil(t, e)
}

func stringCol(c *d.Col) *d.Col {
	s := make([]string, c.Len())
	for ind := range s {
		s[ind] = "x"
	}

	col, _ := d.NewCol(s, d.DTstring, d.ColName(c.Name()))

	return col
}
