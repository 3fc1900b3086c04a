package models

import (
	"fmt"

	d "github.com/invertedv/housing"
	"gonum.org/v1/gonum/mat"
)

// Intercept is the name of column 0 of every design matrix.
const Intercept = "(intercept)"

// Matrix is a design matrix with its response.
type Matrix struct {
	X     *mat.Dense
	Y     []float64
	Names []string
}

// Design builds the design matrix of df for target: an intercept, every float and int column and the
// dummies of every categorical column. String and date columns, target and exclude are left out.
// Missing values are an error; Design expects imputed tables.
func Design(df *d.DF, target string, exclude ...string) (*Matrix, error) {
	var tc *d.Col
	if tc = df.Column(target); tc == nil {
		return nil, fmt.Errorf("%w: target %s is absent", d.ErrSchema, target)
	}

	if !tc.DataType().IsNumeric() || tc.DataType() == d.DTcategorical {
		return nil, fmt.Errorf("target %s is %s", target, tc.DataType())
	}

	if tc.Missing() > 0 {
		return nil, fmt.Errorf("target %s has %d missing values", target, tc.Missing())
	}

	var cols []*d.Col
	for c := df.Next(true); c != nil; c = df.Next(false) {
		if c.Name() == target || has(c.Name(), exclude) || !c.DataType().IsNumeric() {
			continue
		}

		cols = append(cols, c)
	}

	var (
		x     *mat.Dense
		names []string
		e     error
	)
	if x, names, e = Predictors(cols, df.RowCount()); e != nil {
		return nil, e
	}

	return &Matrix{X: x, Y: tc.AsFloat(), Names: names}, nil
}

// Predictors builds a design matrix with n rows from cols: an intercept, the values of float and int
// columns and, for a categorical column, a 0/1 dummy for every level but the first.
func Predictors(cols []*d.Col, n int) (*mat.Dense, []string, error) {
	if n == 0 {
		return nil, nil, fmt.Errorf("no rows for design matrix")
	}

	ones := make([]float64, n)
	for ind := range ones {
		ones[ind] = 1
	}

	data := [][]float64{ones}
	names := []string{Intercept}
	for _, c := range cols {
		if c.Len() != n {
			return nil, nil, fmt.Errorf("column %s has %d rows, need %d", c.Name(), c.Len(), n)
		}

		if c.Missing() > 0 {
			return nil, nil, fmt.Errorf("column %s has %d missing values", c.Name(), c.Missing())
		}

		switch c.DataType() {
		case d.DTfloat, d.DTint:
			data = append(data, c.AsFloat())
			names = append(names, c.Name())
		case d.DTcategorical:
			lvls := c.CategoryMap().Levels()
			codes := c.AsInt()
			for code := 1; code < len(lvls); code++ {
				dm := make([]float64, n)
				for ind, cd := range codes {
					if cd == code {
						dm[ind] = 1
					}
				}

				data = append(data, dm)
				names = append(names, fmt.Sprintf("%s_%v", c.Name(), lvls[code]))
			}
		default:
			return nil, nil, fmt.Errorf("column %s is %s, cannot be a predictor", c.Name(), c.DataType())
		}
	}

	x := mat.NewDense(n, len(data), nil)
	for j, col := range data {
		x.SetCol(j, col)
	}

	return x, names, nil
}

// Rows returns the rows of x, in order. rows must not be empty.
func Rows(x *mat.Dense, rows []int) *mat.Dense {
	_, p := x.Dims()
	out := mat.NewDense(len(rows), p, nil)
	for ind, row := range rows {
		out.SetRow(ind, x.RawRowView(row))
	}

	return out
}

func has[C comparable](needle C, haystack []C) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}

	return false
}
