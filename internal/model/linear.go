package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression is a ridge-regularized least-squares regressor fit by
// normal equations. Used directly against the 0/1 label it doubles as a
// (crude) classifier, matching the original linear baseline.
type LinearRegression struct {
	// Alpha is the L2 regularization strength. Zero is plain OLS, which
	// can fail on collinear features; the default config keeps it small
	// but positive.
	Alpha float64

	theta *mat.VecDense // bias term first, then one weight per feature
}

// NewLinearRegression returns a regressor with a small default ridge.
func NewLinearRegression(alpha float64) *LinearRegression {
	return &LinearRegression{Alpha: alpha}
}

// Fit solves (AᵀA + αI)θ = Aᵀy where A is X with a leading bias column.
func (m *LinearRegression) Fit(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("X has %d rows but y has %d labels", rows, len(y))
	}
	if rows == 0 {
		return fmt.Errorf("cannot fit on empty matrix")
	}

	A := withBias(X)
	d := cols + 1

	var ata mat.Dense
	ata.Mul(A.T(), A)
	for i := 1; i < d; i++ { // bias stays unregularized
		ata.Set(i, i, ata.At(i, i)+m.Alpha)
	}

	var aty mat.VecDense
	aty.MulVec(A.T(), mat.NewVecDense(rows, y))

	m.theta = mat.NewVecDense(d, nil)
	if err := m.theta.SolveVec(&ata, &aty); err != nil {
		return fmt.Errorf("normal equations singular (try a larger alpha): %w", err)
	}
	return nil
}

// Predict returns raw regression outputs.
func (m *LinearRegression) Predict(X *mat.Dense) []float64 {
	rows, _ := X.Dims()
	A := withBias(X)
	var out mat.VecDense
	out.MulVec(A, m.theta)
	preds := make([]float64, rows)
	for i := range preds {
		preds[i] = out.AtVec(i)
	}
	return preds
}

// PredictProba clamps raw outputs into [0,1] so the regressor can be
// scored alongside the real classifiers.
func (m *LinearRegression) PredictProba(X *mat.Dense) []float64 {
	preds := m.Predict(X)
	for i, p := range preds {
		switch {
		case p < 0:
			preds[i] = 0
		case p > 1:
			preds[i] = 1
		}
	}
	return preds
}

// Coefficients returns the fitted weights (without bias) and intercept.
func (m *LinearRegression) Coefficients() (weights []float64, intercept float64) {
	if m.theta == nil {
		return nil, 0
	}
	intercept = m.theta.AtVec(0)
	weights = make([]float64, m.theta.Len()-1)
	for i := range weights {
		weights[i] = m.theta.AtVec(i + 1)
	}
	return weights, intercept
}

// withBias prepends a column of ones.
func withBias(X *mat.Dense) *mat.Dense {
	rows, cols := X.Dims()
	A := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		A.Set(i, 0, 1)
		for j := 0; j < cols; j++ {
			A.Set(i, j+1, X.At(i, j))
		}
	}
	return A
}
