package split

import (
	"sort"
	"testing"

	d "github.com/invertedv/housing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(n int) *d.DF {
	id := make([]int, n)
	for ind := range id {
		id[ind] = ind
	}

	c, _ := d.NewCol(id, d.DTint, d.ColName("id"))
	df, _ := d.NewDF(c)

	return df
}

func TestSplit(t *testing.T) {
	train, test, e := Split(ids(20), DefaultTrainFrac, 7)
	require.Nil(t, e)
	assert.Equal(t, 15, train.RowCount())
	assert.Equal(t, 5, test.RowCount())

	trIDs, teIDs := train.Column("id").AsInt(), test.Column("id").AsInt()
	assert.True(t, sort.IntsAreSorted(trIDs))
	assert.True(t, sort.IntsAreSorted(teIDs))

	all := append(append([]int{}, trIDs...), teIDs...)
	sort.Ints(all)
	assert.Equal(t, ids(20).Column("id").AsInt(), all)

	train2, test2, _ := Split(ids(20), DefaultTrainFrac, 7)
	assert.True(t, train.Equal(train2))
	assert.True(t, test.Equal(test2))

	_, _, e = Split(ids(20), 1, 7)
	assert.NotNil(t, e)
	_, _, e = Split(ids(20), 0, 7)
	assert.NotNil(t, e)
}

func TestFactor(t *testing.T) {
	trc, _ := d.NewCol([]int{1, 2, 2}, d.DTint, d.ColName("state"))
	tec, _ := d.NewCol([]int{2, 3}, d.DTint, d.ColName("state"))
	train, _ := d.NewDF(trc)
	test, _ := d.NewDF(tec)

	trOut, teOut, e := Factor(train, test, "state")
	require.Nil(t, e)

	trs, tes := trOut.Column("state"), teOut.Column("state")
	assert.Equal(t, d.DTcategorical, trs.DataType())
	assert.Equal(t, d.DTcategorical, tes.DataType())
	assert.Equal(t, trs.CategoryMap(), tes.CategoryMap())
	assert.Equal(t, []int{0, 1, 1}, trs.AsInt())

	lvl, ok := tes.Level(0)
	assert.True(t, ok)
	assert.Equal(t, 2, lvl)
	assert.True(t, tes.IsMissing(1))

	// inputs untouched
	assert.Equal(t, d.DTint, train.Column("state").DataType())

	_, _, e = Factor(train, test, "nope")
	assert.ErrorIs(t, e, d.ErrSchema)
}

func TestStack(t *testing.T) {
	draws := []*d.DF{ids(3), ids(3), ids(3)}
	stacked, e := Stack(draws)
	require.Nil(t, e)
	assert.Equal(t, len(draws)*3, stacked.RowCount())
	assert.Equal(t, []string{"id", DrawCol}, stacked.ColumnNames())
	assert.Equal(t, []int{1, 1, 1, 2, 2, 2, 3, 3, 3}, stacked.Column(DrawCol).AsInt())
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1, 2}, stacked.Column("id").AsInt())

	// draws untouched
	assert.Nil(t, draws[0].Column(DrawCol))

	_, e = Stack(nil)
	assert.NotNil(t, e)

	_, e = Stack([]*d.DF{stacked})
	assert.NotNil(t, e)
}
