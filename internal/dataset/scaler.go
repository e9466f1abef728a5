package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers features to zero mean and unit variance.
// Fit on the training split only; applying train statistics to the test
// split keeps evaluation honest.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// Fit learns per-column mean and standard deviation.
func (s *StandardScaler) Fit(X *mat.Dense) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("cannot fit scaler on empty matrix")
	}
	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		s.mean[j] = stat.Mean(col, nil)
		sd := math.Sqrt(stat.Variance(col, nil))
		if sd == 0 || math.IsNaN(sd) {
			sd = 1 // constant column: center only
		}
		s.std[j] = sd
	}
	return nil
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if len(s.mean) != cols {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (X.At(i, j)-s.mean[j])/s.std[j])
		}
	}
	return out, nil
}

// FitTransform fits on X and returns the scaled copy.
func (s *StandardScaler) FitTransform(X *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
