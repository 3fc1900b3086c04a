package features

import (
	"testing"
	"time"

	d "github.com/invertedv/housing"
	"github.com/invertedv/housing/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y, m, dd int) time.Time {
	return time.Date(y, time.Month(m), dd, 0, 0, 0, 0, time.UTC)
}

func txDF() *d.DF {
	ts, _ := d.NewCol([]time.Time{day(2012, 3, 2), day(2011, 8, 20), day(2012, 3, 3), day(2013, 1, 9)},
		d.DTdate, d.ColName(schema.TimeKey))
	p, _ := d.NewCol([]float64{1, 2, 3, 4}, d.DTfloat, d.ColName(schema.Target))
	df, _ := d.NewDF(ts, p)

	return df
}

func macroDF() *d.DF {
	// out of date order on purpose
	ts, _ := d.NewCol([]time.Time{day(2012, 3, 3), day(2012, 3, 1), day(2012, 3, 2), day(2012, 2, 29)},
		d.DTdate, d.ColName(schema.TimeKey))
	fx, _ := d.NewCol([]float64{16, 12, 14, 10}, d.DTfloat, d.ColName(schema.USDRUB))
	un, _ := d.NewCol([]float64{5, 5, 5, 5}, d.DTfloat, d.ColName(schema.Unemployment))
	df, _ := d.NewDF(ts, fx, un)

	return df
}

func TestRollingMean(t *testing.T) {
	v, _ := d.NewVector([]float64{10, 12, 14, 16}, d.DTfloat)
	rm, e := RollingMean(v, 3)
	require.Nil(t, e)
	assert.Equal(t, v.Len(), rm.Len())
	assert.True(t, rm.IsMissing(0))
	assert.True(t, rm.IsMissing(1))
	assert.Equal(t, 12.0, rm.Element(2))
	assert.Equal(t, 14.0, rm.Element(3))

	one, e := RollingMean(v, 1)
	require.Nil(t, e)
	assert.Equal(t, 0, one.Missing())
	assert.Equal(t, 16.0, one.Element(3))

	long, e := RollingMean(v, 365)
	require.Nil(t, e)
	assert.Equal(t, 4, long.Missing())

	// a missing value spoils every window it falls in
	_ = v.SetMissing(1)
	rm, _ = RollingMean(v, 2)
	assert.Equal(t, 3, rm.Missing())
	assert.Equal(t, 15.0, rm.Element(3))

	_, e = RollingMean(v, 0)
	assert.NotNil(t, e)
}

func TestRolling(t *testing.T) {
	mac, e := Rolling(macroDF(), schema.TimeKey, schema.USDRUB, []int{3})
	require.Nil(t, e)
	assert.Equal(t, []float64{10, 12, 14, 16}, mac.Column(schema.USDRUB).AsFloat())

	rm := mac.Column(RollingName(schema.USDRUB, 3))
	require.NotNil(t, rm)
	assert.Equal(t, 2, rm.Missing())
	assert.Equal(t, 14.0, rm.Element(3))

	// input is not changed
	assert.Equal(t, 16.0, macroDF().Column(schema.USDRUB).Element(0))

	_, e = Rolling(macroDF(), schema.TimeKey, "nope", []int{3})
	assert.ErrorIs(t, e, d.ErrSchema)
}

func TestDummies(t *testing.T) {
	c, _ := d.NewCol([]int{3, 1, 2, 1}, d.DTint, d.ColName("m"))
	_ = c.SetMissing(3)

	dms, e := Dummies(c, "m_", true)
	require.Nil(t, e)
	require.Len(t, dms, 2)
	assert.Equal(t, "m_2", dms[0].Name())
	assert.Equal(t, "m_3", dms[1].Name())
	assert.Equal(t, []int{0, 0, 1, 0}, dms[0].AsInt())
	assert.Equal(t, []int{1, 0, 0, 0}, dms[1].AsInt())
	assert.True(t, dms[1].IsMissing(3))

	all, _ := Dummies(c, "m_", false)
	assert.Len(t, all, 3)
}

func TestCalendar(t *testing.T) {
	df, e := Calendar(txDF(), schema.TimeKey)
	require.Nil(t, e)

	// the first row is March 2012, but the references are the lowest month (1) and earliest year (2011)
	assert.Equal(t, []string{schema.TimeKey, schema.Target, "month_3", "month_8", "year_2012", "year_2013"},
		df.ColumnNames())
	assert.Equal(t, []int{1, 0, 1, 0}, df.Column("month_3").AsInt())
	assert.Equal(t, []int{0, 0, 0, 1}, df.Column("year_2013").AsInt())
	assert.Equal(t, []string{"month_3", "month_8", "year_2012", "year_2013"},
		Prefixed(df, MonthPrefix, YearPrefix))

	_, e = Calendar(txDF(), schema.Target)
	assert.NotNil(t, e)
}

func TestLeftJoin(t *testing.T) {
	mac, _ := Rolling(macroDF(), schema.TimeKey, schema.USDRUB, []int{3})
	tx := txDF()

	joined, e := LeftJoin(tx, mac, schema.TimeKey)
	require.Nil(t, e)
	assert.Equal(t, tx.RowCount(), joined.RowCount())

	fx := joined.Column(schema.USDRUB)
	assert.Equal(t, 14.0, fx.Element(0))
	assert.True(t, fx.IsMissing(1))
	assert.Equal(t, 16.0, fx.Element(2))
	assert.True(t, fx.IsMissing(3))
	assert.Equal(t, 14.0, joined.Column(RollingName(schema.USDRUB, 3)).Element(2))

	// no coverage at all still keeps every row
	empty, _ := macroDF().Subset([]int{})
	joined, e = LeftJoin(tx, empty, schema.TimeKey)
	require.Nil(t, e)
	assert.Equal(t, tx.RowCount(), joined.RowCount())
	assert.Equal(t, tx.RowCount(), joined.Column(schema.USDRUB).Missing())

	// repeated macro dates: the first one wins
	dup, _ := macroDF().AppendRows(macroDF())
	joined, e = LeftJoin(tx, dup, schema.TimeKey)
	require.Nil(t, e)
	assert.Equal(t, tx.RowCount(), joined.RowCount())

	_, e = LeftJoin(tx, tx, schema.TimeKey)
	assert.NotNil(t, e)
}

func TestDerive(t *testing.T) {
	wide, e := Derive(txDF(), macroDF(), DefaultWindows)
	require.Nil(t, e)
	assert.Equal(t, 4, wide.RowCount())
	assert.True(t, wide.HasColumns(MacroColumns(DefaultWindows)...))
	assert.Equal(t, 4, wide.Column(RollingName(schema.USDRUB, 365)).Missing())
}
