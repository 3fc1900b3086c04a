// Package split partitions the wide table into train and test, factorizes categorical columns with the
// train levels and stacks imputed draws.
package split

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	d "github.com/invertedv/housing"
)

// DrawCol numbers the imputed draw each stacked row came from, starting at 1.
const DrawCol = "draw"

// DefaultTrainFrac is the share of rows that go to train.
const DefaultTrainFrac = 0.75

// Split randomly assigns round(trainFrac * rows) rows of df to train and the rest to test. Both keep the
// row order of df. The same seed gives the same partition.
func Split(df *d.DF, trainFrac float64, seed uint64) (train, test *d.DF, err error) {
	if trainFrac <= 0 || trainFrac >= 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0, 1), got %v", trainFrac)
	}

	n := df.RowCount()
	nTrain := int(math.Round(trainFrac * float64(n)))
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	trainRows := append([]int{}, perm[:nTrain]...)
	testRows := append([]int{}, perm[nTrain:]...)
	sort.Ints(trainRows)
	sort.Ints(testRows)

	if train, err = df.Subset(trainRows); err != nil {
		return nil, nil, err
	}

	if test, err = df.Subset(testRows); err != nil {
		return nil, nil, err
	}

	return train, test, nil
}

// Factor makes cols categorical in train and test. The levels come from train alone; test values
// train never saw become missing.
func Factor(train, test *d.DF, cols ...string) (trainOut, testOut *d.DF, err error) {
	trainOut, testOut = train.Copy(), test.Copy()
	for _, cn := range cols {
		var trc, tec *d.Col
		if trc, tec = trainOut.Column(cn), testOut.Column(cn); trc == nil || tec == nil {
			return nil, nil, fmt.Errorf("%w: column %s is absent", d.ErrSchema, cn)
		}

		var catTrain, catTest *d.Col
		if catTrain, err = d.Categorical(trc, nil); err != nil {
			return nil, nil, err
		}

		if catTest, err = d.Categorical(tec, catTrain.CategoryMap()); err != nil {
			return nil, nil, err
		}

		if err = trainOut.AppendColumn(catTrain, true); err != nil {
			return nil, nil, err
		}

		if err = testOut.AppendColumn(catTest, true); err != nil {
			return nil, nil, err
		}
	}

	return trainOut, testOut, nil
}

// Stack concatenates draws into one table and adds DrawCol. The result has len(draws) times the rows of
// each draw.
func Stack(draws []*d.DF) (*d.DF, error) {
	if len(draws) == 0 {
		return nil, fmt.Errorf("no draws to stack")
	}

	var stacked *d.DF
	for k, dr := range draws {
		if dr.Column(DrawCol) != nil {
			return nil, fmt.Errorf("draw %d already has column %s", k+1, DrawCol)
		}

		one := dr.Copy()
		idx := make([]int, one.RowCount())
		for ind := range idx {
			idx[ind] = k + 1
		}

		dc, _ := d.NewCol(idx, d.DTint, d.ColName(DrawCol))
		if e := one.AppendColumn(dc, false); e != nil {
			return nil, e
		}

		if stacked == nil {
			stacked = one
			continue
		}

		var e error
		if stacked, e = stacked.AppendRows(one); e != nil {
			return nil, fmt.Errorf("stacking draw %d: %w", k+1, e)
		}
	}

	return stacked, nil
}
