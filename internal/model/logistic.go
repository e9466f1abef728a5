package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a binary logistic classifier trained with batch
// gradient descent. Inputs are expected pre-scaled (see dataset.StandardScaler);
// with raw page-view counts the fixed learning rate diverges.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	L2           float64

	weights   []float64
	intercept float64
}

// NewLogisticRegression configures a classifier.
func NewLogisticRegression(lr float64, epochs int, l2 float64) *LogisticRegression {
	return &LogisticRegression{LearningRate: lr, Epochs: epochs, L2: l2}
}

func sigmoid(z float64) float64 {
	// Clamp to avoid overflow in Exp for extreme logits.
	if z < -30 {
		return 0
	}
	if z > 30 {
		return 1
	}
	return 1 / (1 + math.Exp(-z))
}

// Fit runs full-batch gradient descent on the log loss.
func (m *LogisticRegression) Fit(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("X has %d rows but y has %d labels", rows, len(y))
	}
	if rows == 0 {
		return fmt.Errorf("cannot fit on empty matrix")
	}

	m.weights = make([]float64, cols)
	m.intercept = 0
	grad := make([]float64, cols)

	for epoch := 0; epoch < m.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i := 0; i < rows; i++ {
			z := m.intercept
			for j := 0; j < cols; j++ {
				z += m.weights[j] * X.At(i, j)
			}
			err := sigmoid(z) - y[i]
			gradB += err
			for j := 0; j < cols; j++ {
				grad[j] += err * X.At(i, j)
			}
		}
		scale := m.LearningRate / float64(rows)
		m.intercept -= scale * gradB
		for j := 0; j < cols; j++ {
			m.weights[j] -= scale * (grad[j] + m.L2*m.weights[j])
		}
	}
	return nil
}

// PredictProba returns P(pass) per sample.
func (m *LogisticRegression) PredictProba(X *mat.Dense) []float64 {
	rows, cols := X.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		z := m.intercept
		for j := 0; j < cols; j++ {
			z += m.weights[j] * X.At(i, j)
		}
		out[i] = sigmoid(z)
	}
	return out
}

// Coefficients returns the fitted weights and intercept.
func (m *LogisticRegression) Coefficients() (weights []float64, intercept float64) {
	return m.weights, m.intercept
}
