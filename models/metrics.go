package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MSE is the mean squared error of yhat.
func MSE(y, yhat []float64) (float64, error) {
	if e := sameLen(y, yhat); e != nil {
		return 0, e
	}

	sq := make([]float64, len(y))
	for ind := range y {
		sq[ind] = (yhat[ind] - y[ind]) * (yhat[ind] - y[ind])
	}

	return stat.Mean(sq, nil), nil
}

// MAERatio is the mean of |yhat - y| / y. y must be non-zero.
func MAERatio(y, yhat []float64) (float64, error) {
	if e := sameLen(y, yhat); e != nil {
		return 0, e
	}

	ratio := make([]float64, len(y))
	for ind := range y {
		if y[ind] == 0 {
			return 0, fmt.Errorf("MAERatio: y is zero at row %d", ind)
		}

		ratio[ind] = math.Abs(yhat[ind]-y[ind]) / y[ind]
	}

	return stat.Mean(ratio, nil), nil
}

func sameLen(y, yhat []float64) error {
	if len(y) != len(yhat) {
		return fmt.Errorf("lengths differ: %d and %d", len(y), len(yhat))
	}

	if len(y) == 0 {
		return fmt.Errorf("no observations")
	}

	return nil
}
