// Package models fits the linear regressions compared on the stacked, imputed tables and scores them.
//
// Every model takes a design matrix whose column 0 is the intercept (see Design).
package models

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is a linear predictor.
type Model interface {
	Fit(x *mat.Dense, y []float64) error
	Predict(x *mat.Dense) ([]float64, error)
	Coef() []float64
}

// ***************** OLS *****************

// OLS is least squares. A positive Ridge inflates the diagonal of X'X by the factor 1+Ridge.
type OLS struct {
	Ridge float64

	coef []float64
}

func NewOLS() *OLS {
	return &OLS{}
}

func (m *OLS) Fit(x *mat.Dense, y []float64) error {
	var e error
	m.coef, e = wls(x, y, nil, m.Ridge, false)

	return e
}

func (m *OLS) Predict(x *mat.Dense) ([]float64, error) {
	return predict(x, m.coef)
}

func (m *OLS) Coef() []float64 {
	return m.coef
}

// ***************** Huber *****************

// Huber is a robust M-estimator fit by iteratively reweighted least squares. Residuals are scaled by
// MAD/0.6745 and those beyond K scale units are down-weighted.
type Huber struct {
	K       float64
	MaxIter int
	Tol     float64

	coef []float64
}

func NewHuber() *Huber {
	return &Huber{K: 1.345, MaxIter: 50, Tol: 1e-8}
}

func (m *Huber) Fit(x *mat.Dense, y []float64) error {
	var (
		beta []float64
		e    error
	)
	if beta, e = wls(x, y, nil, 0, false); e != nil {
		return e
	}

	w := make([]float64, len(y))
	for iter := 0; iter < m.MaxIter; iter++ {
		var yhat []float64
		if yhat, e = predict(x, beta); e != nil {
			return e
		}

		res := make([]float64, len(y))
		for ind := range res {
			res[ind] = y[ind] - yhat[ind]
		}

		scale := mad(res) / 0.6745
		if scale == 0 {
			break
		}

		for ind, r := range res {
			w[ind] = 1
			if u := math.Abs(r) / scale; u > m.K {
				w[ind] = m.K / u
			}
		}

		var next []float64
		if next, e = wls(x, y, w, 0, false); e != nil {
			return e
		}

		done := converged(beta, next, m.Tol)
		beta = next
		if done {
			break
		}
	}

	m.coef = beta

	return nil
}

func (m *Huber) Predict(x *mat.Dense) ([]float64, error) {
	return predict(x, m.coef)
}

func (m *Huber) Coef() []float64 {
	return m.coef
}

// ***************** ElasticNet *****************

// ElasticNet minimizes
//
//	1/(2n) |y - Xb|^2 + Alpha * (L1Ratio |b|_1 + (1-L1Ratio)/2 |b|^2)
//
// by coordinate descent on standardized predictors. The intercept is not penalized.
type ElasticNet struct {
	Alpha   float64
	L1Ratio float64
	MaxIter int
	Tol     float64

	coef []float64
}

func NewElasticNet(alpha, l1Ratio float64) *ElasticNet {
	return &ElasticNet{Alpha: alpha, L1Ratio: l1Ratio, MaxIter: 1000, Tol: 1e-7}
}

func (m *ElasticNet) Fit(x *mat.Dense, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return fmt.Errorf("X has %d rows, y has %d", n, len(y))
	}

	if m.Alpha < 0 || m.L1Ratio < 0 || m.L1Ratio > 1 {
		return fmt.Errorf("bad elastic net parameters: alpha %v, l1 ratio %v", m.Alpha, m.L1Ratio)
	}

	z, means, sds := standardize(x)
	yBar := stat.Mean(y, nil)
	r := make([]float64, n)
	for ind := range r {
		r[ind] = y[ind] - yBar
	}

	beta := make([]float64, p)
	l1, l2 := m.Alpha*m.L1Ratio, m.Alpha*(1-m.L1Ratio)
	for iter := 0; iter < m.MaxIter; iter++ {
		maxDelta := 0.0
		for j := 1; j < p; j++ {
			if sds[j] == 0 {
				continue
			}

			rho := beta[j]
			for ind := 0; ind < n; ind++ {
				rho += z[j][ind] * r[ind] / float64(n)
			}

			nb := softThreshold(rho, l1) / (1 + l2)
			if delta := nb - beta[j]; delta != 0 {
				for ind := 0; ind < n; ind++ {
					r[ind] -= z[j][ind] * delta
				}

				maxDelta = math.Max(maxDelta, math.Abs(delta))
				beta[j] = nb
			}
		}

		if maxDelta < m.Tol {
			break
		}
	}

	m.coef = make([]float64, p)
	m.coef[0] = yBar
	for j := 1; j < p; j++ {
		if sds[j] == 0 {
			continue
		}

		m.coef[j] = beta[j] / sds[j]
		m.coef[0] -= m.coef[j] * means[j]
	}

	return nil
}

func (m *ElasticNet) Predict(x *mat.Dense) ([]float64, error) {
	return predict(x, m.coef)
}

func (m *ElasticNet) Coef() []float64 {
	return m.coef
}

// ***************** Logistic *****************

// Logistic is a ridge-penalized logistic regression fit by IRLS. y is 0/1. Predict returns
// probabilities. Ridge is per observation and does not apply to the intercept.
type Logistic struct {
	Ridge   float64
	MaxIter int
	Tol     float64

	coef []float64
}

func NewLogistic() *Logistic {
	return &Logistic{Ridge: 1e-3, MaxIter: 25, Tol: 1e-8}
}

func (m *Logistic) Fit(x *mat.Dense, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return fmt.Errorf("X has %d rows, y has %d", n, len(y))
	}

	for _, yv := range y {
		if yv != 0 && yv != 1 {
			return fmt.Errorf("logistic response must be 0 or 1, got %v", yv)
		}
	}

	beta := make([]float64, p)
	for iter := 0; iter < m.MaxIter; iter++ {
		var (
			eta []float64
			e   error
		)
		if eta, e = predict(x, beta); e != nil {
			return e
		}

		w, z := make([]float64, n), make([]float64, n)
		for ind := range eta {
			pr := sigmoid(eta[ind])
			w[ind] = math.Max(pr*(1-pr), 1e-10)
			z[ind] = eta[ind] + (y[ind]-pr)/w[ind]
		}

		var next []float64
		if next, e = wls(x, z, w, m.Ridge*float64(n), true); e != nil {
			return e
		}

		done := converged(beta, next, m.Tol)
		beta = next
		if done {
			break
		}
	}

	m.coef = beta

	return nil
}

func (m *Logistic) Predict(x *mat.Dense) ([]float64, error) {
	var (
		eta []float64
		e   error
	)
	if eta, e = predict(x, m.coef); e != nil {
		return nil, e
	}

	for ind, et := range eta {
		eta[ind] = sigmoid(et)
	}

	return eta, nil
}

func (m *Logistic) Coef() []float64 {
	return m.coef
}

// ***************** Helpers *****************

// wls solves the weighted normal equations (X'WX + R) b = X'Wy. w nil means unit weights.
// If absolute, R adds ridge to each diagonal element but the intercept's; otherwise R scales the diagonal
// by 1+ridge. If the system is singular the ridge is increased until it is not.
func wls(x *mat.Dense, y, w []float64, ridge float64, absolute bool) ([]float64, error) {
	n, p := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("X has %d rows, y has %d", n, len(y))
	}

	xw := mat.DenseCopyOf(x)
	yw := append([]float64{}, y...)
	if w != nil {
		for ind := 0; ind < n; ind++ {
			sw := math.Sqrt(w[ind])
			for j := 0; j < p; j++ {
				xw.Set(ind, j, sw*xw.At(ind, j))
			}

			yw[ind] *= sw
		}
	}

	var (
		xtx mat.SymDense
		xty mat.VecDense
	)
	xtx.SymOuterK(1, xw.T())
	xty.MulVec(xw.T(), mat.NewVecDense(n, yw))

	r := ridge
	for attempt := 0; attempt < 12; attempt++ {
		a := mat.NewSymDense(p, nil)
		a.CopySym(&xtx)
		for j := 0; j < p; j++ {
			djj := a.At(j, j)
			switch {
			case djj == 0:
				// all-zero column; its coefficient solves to 0
				a.SetSym(j, j, 1)
			case absolute && j > 0:
				a.SetSym(j, j, djj+r)
			case !absolute:
				a.SetSym(j, j, djj*(1+r))
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(a); ok {
			var beta mat.VecDense
			if e := chol.SolveVecTo(&beta, &xty); e == nil {
				return mat.Col(nil, 0, &beta), nil
			}
		}

		r = math.Max(10*r, 1e-10)
	}

	return nil, fmt.Errorf("normal equations are singular")
}

func predict(x *mat.Dense, coef []float64) ([]float64, error) {
	if coef == nil {
		return nil, fmt.Errorf("model is not fitted")
	}

	_, p := x.Dims()
	if p != len(coef) {
		return nil, fmt.Errorf("X has %d columns, model has %d coefficients", p, len(coef))
	}

	var yhat mat.VecDense
	yhat.MulVec(x, mat.NewVecDense(p, coef))

	return mat.Col(nil, 0, &yhat), nil
}

// standardize returns the columns of x centered and scaled to unit population variance, with their means
// and standard deviations. Column 0 and constant columns are left as zeros with sd 0.
func standardize(x *mat.Dense) (z [][]float64, means, sds []float64) {
	n, p := x.Dims()
	z = make([][]float64, p)
	means, sds = make([]float64, p), make([]float64, p)
	for j := 1; j < p; j++ {
		col := mat.Col(nil, j, x)
		mn, vr := stat.MeanVariance(col, nil)
		means[j] = mn
		if n > 1 {
			sds[j] = math.Sqrt(vr * float64(n-1) / float64(n))
		}

		z[j] = make([]float64, n)
		if sds[j] == 0 {
			continue
		}

		for ind, xv := range col {
			z[j][ind] = (xv - mn) / sds[j]
		}
	}

	return z, means, sds
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

func sigmoid(x float64) float64 {
	x = math.Max(-30, math.Min(30, x))
	return 1 / (1 + math.Exp(-x))
}

func mad(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	med := median(x)
	dev := make([]float64, len(x))
	for ind, xv := range x {
		dev[ind] = math.Abs(xv - med)
	}

	return median(dev)
}

func median(x []float64) float64 {
	s := append([]float64{}, x...)
	sort.Float64s(s)

	return stat.Quantile(0.5, stat.Empirical, s, nil)
}

func converged(old, next []float64, tol float64) bool {
	for ind := range old {
		if math.Abs(next[ind]-old[ind]) > tol*(1+math.Abs(old[ind])) {
			return false
		}
	}

	return true
}
