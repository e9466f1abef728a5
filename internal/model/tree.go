package model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// decisionTree is a CART-style binary classification tree on Gini
// impurity. It only exists as a forest member; the exported baseline is
// RandomForest.
type decisionTree struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand

	root *treeNode

	// impurity decrease accumulated per feature, for importances
	importances []float64
}

type treeNode struct {
	leaf      bool
	prob      float64 // P(pass) at a leaf
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	leftIdx   []int
	rightIdx  []int
}

func (t *decisionTree) fit(X *mat.Dense, y []float64) {
	_, cols := X.Dims()
	t.importances = make([]float64, cols)
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(X, y, idx, 0)
}

func (t *decisionTree) grow(X *mat.Dense, y []float64, idx []int, depth int) *treeNode {
	prob := meanLabel(y, idx)
	if depth >= t.maxDepth || len(idx) < t.minSamplesSplit || prob == 0 || prob == 1 {
		return &treeNode{leaf: true, prob: prob}
	}

	best := t.bestSplit(X, y, idx)
	if best == nil {
		return &treeNode{leaf: true, prob: prob}
	}
	t.importances[best.feature] += best.gain * float64(len(idx))

	return &treeNode{
		feature:   best.feature,
		threshold: best.threshold,
		left:      t.grow(X, y, best.leftIdx, depth+1),
		right:     t.grow(X, y, best.rightIdx, depth+1),
	}
}

// bestSplit scans a random feature subset for the threshold with the
// largest Gini gain. Returns nil when no split separates the samples.
func (t *decisionTree) bestSplit(X *mat.Dense, y []float64, idx []int) *split {
	_, cols := X.Dims()
	features := t.rng.Perm(cols)
	if t.maxFeatures > 0 && t.maxFeatures < cols {
		features = features[:t.maxFeatures]
	}

	parentGini := gini(y, idx)
	var best *split

	for _, f := range features {
		ordered := make([]int, len(idx))
		copy(ordered, idx)
		sort.Slice(ordered, func(a, b int) bool {
			return X.At(ordered[a], f) < X.At(ordered[b], f)
		})

		// Walk split positions between distinct neighbor values,
		// maintaining left-side label counts incrementally.
		leftPos, leftN := 0.0, 0.0
		totalPos := 0.0
		for _, i := range ordered {
			totalPos += y[i]
		}
		total := float64(len(ordered))

		for k := 0; k < len(ordered)-1; k++ {
			i := ordered[k]
			leftPos += y[i]
			leftN++
			a, b := X.At(i, f), X.At(ordered[k+1], f)
			if a == b {
				continue
			}

			rightN := total - leftN
			rightPos := totalPos - leftPos
			gl := giniFromCounts(leftPos, leftN)
			gr := giniFromCounts(rightPos, rightN)
			gain := parentGini - (leftN/total)*gl - (rightN/total)*gr
			if gain <= 0 {
				continue
			}
			if best == nil || gain > best.gain {
				best = &split{
					feature:   f,
					threshold: (a + b) / 2,
					gain:      gain,
				}
			}
		}
	}

	if best == nil {
		return nil
	}
	for _, i := range idx {
		if X.At(i, best.feature) <= best.threshold {
			best.leftIdx = append(best.leftIdx, i)
		} else {
			best.rightIdx = append(best.rightIdx, i)
		}
	}
	return best
}

func (t *decisionTree) predictOne(X *mat.Dense, row int) float64 {
	node := t.root
	for !node.leaf {
		if X.At(row, node.feature) <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.prob
}

func meanLabel(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func gini(y []float64, idx []int) float64 {
	pos := 0.0
	for _, i := range idx {
		pos += y[i]
	}
	return giniFromCounts(pos, float64(len(idx)))
}

func giniFromCounts(pos, n float64) float64 {
	if n == 0 {
		return 0
	}
	p := pos / n
	return 2 * p * (1 - p)
}

// sqrtFeatures is the conventional classification default for the
// per-split feature subset size.
func sqrtFeatures(cols int) int {
	n := int(math.Sqrt(float64(cols)))
	if n < 1 {
		n = 1
	}
	return n
}
