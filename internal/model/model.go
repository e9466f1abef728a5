// Package model implements the pass/fail baseline models and their
// evaluation. All models share a scikit-style Fit/PredictProba surface
// so the cross-validation driver and the report treat them uniformly.
package model

import "gonum.org/v1/gonum/mat"

// Classifier is a binary classifier over labels in {0, 1}.
type Classifier interface {
	// Fit trains on X (samples x features) and labels y.
	Fit(X *mat.Dense, y []float64) error
	// PredictProba returns P(pass) per sample.
	PredictProba(X *mat.Dense) []float64
}

// Classify thresholds probabilities at 0.5.
func Classify(probs []float64) []float64 {
	out := make([]float64, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}
