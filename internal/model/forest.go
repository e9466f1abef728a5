package model

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RandomForest is a bagged ensemble of Gini decision trees with
// per-split feature subsampling.
type RandomForest struct {
	trees           int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int // 0 means sqrt(features)
	seed            int64

	members []*decisionTree
	numCols int
}

// ForestOption configures a RandomForest.
type ForestOption func(*RandomForest)

// WithTrees sets the ensemble size.
func WithTrees(n int) ForestOption { return func(f *RandomForest) { f.trees = n } }

// WithMaxDepth caps tree depth.
func WithMaxDepth(d int) ForestOption { return func(f *RandomForest) { f.maxDepth = d } }

// WithMinSamplesSplit sets the minimum node size eligible for a split.
func WithMinSamplesSplit(n int) ForestOption { return func(f *RandomForest) { f.minSamplesSplit = n } }

// WithMaxFeatures overrides the sqrt(d) per-split feature subset size.
func WithMaxFeatures(n int) ForestOption { return func(f *RandomForest) { f.maxFeatures = n } }

// WithSeed makes training deterministic.
func WithSeed(seed int64) ForestOption { return func(f *RandomForest) { f.seed = seed } }

// NewRandomForest builds a forest with sane defaults.
func NewRandomForest(opts ...ForestOption) *RandomForest {
	f := &RandomForest{
		trees:           100,
		maxDepth:        8,
		minSamplesSplit: 2,
		seed:            1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit trains the ensemble on bootstrap samples.
func (f *RandomForest) Fit(X *mat.Dense, y []float64) error {
	rows, cols := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("X has %d rows but y has %d labels", rows, len(y))
	}
	if rows == 0 {
		return fmt.Errorf("cannot fit on empty matrix")
	}
	f.numCols = cols

	maxFeatures := f.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = sqrtFeatures(cols)
	}

	master := rand.New(rand.NewSource(f.seed))
	f.members = make([]*decisionTree, f.trees)
	for t := 0; t < f.trees; t++ {
		rng := rand.New(rand.NewSource(master.Int63()))

		// Bootstrap sample with replacement.
		bootX := mat.NewDense(rows, cols, nil)
		bootY := make([]float64, rows)
		for i := 0; i < rows; i++ {
			src := rng.Intn(rows)
			bootX.SetRow(i, mat.Row(nil, src, X))
			bootY[i] = y[src]
		}

		tree := &decisionTree{
			maxDepth:        f.maxDepth,
			minSamplesSplit: f.minSamplesSplit,
			maxFeatures:     maxFeatures,
			rng:             rng,
		}
		tree.fit(bootX, bootY)
		f.members[t] = tree
	}
	return nil
}

// PredictProba averages leaf probabilities across the ensemble.
func (f *RandomForest) PredictProba(X *mat.Dense) []float64 {
	rows, _ := X.Dims()
	out := make([]float64, rows)
	if len(f.members) == 0 {
		return out
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for _, tree := range f.members {
			sum += tree.predictOne(X, i)
		}
		out[i] = sum / float64(len(f.members))
	}
	return out
}

// FeatureImportances returns normalized impurity-decrease importances.
func (f *RandomForest) FeatureImportances() []float64 {
	imp := make([]float64, f.numCols)
	for _, tree := range f.members {
		for j, v := range tree.importances {
			imp[j] += v
		}
	}
	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for j := range imp {
			imp[j] /= total
		}
	}
	return imp
}
