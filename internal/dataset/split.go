package dataset

import (
	"fmt"
	"math/rand"
)

// TrainTestSplit partitions the dataset with a seeded shuffle,
// stratified so both splits keep the pass/fail ratio.
func TrainTestSplit(d *Dataset, testSize float64, seed int64) (train, test *Dataset, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0,1), got %v", testSize)
	}
	rng := rand.New(rand.NewSource(seed))

	var pos, neg []int
	for i, v := range d.Y {
		if v == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	var trainIdx, testIdx []int
	for _, class := range [][]int{pos, neg} {
		cut := int(float64(len(class)) * testSize)
		testIdx = append(testIdx, class[:cut]...)
		trainIdx = append(trainIdx, class[cut:]...)
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, fmt.Errorf("split produced an empty partition (%d train, %d test)", len(trainIdx), len(testIdx))
	}
	return d.Subset(trainIdx), d.Subset(testIdx), nil
}

// KFold returns k disjoint test-index folds covering all samples after a
// seeded shuffle. Fold sizes differ by at most one.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("need 2 <= folds <= samples, got folds=%d samples=%d", k, n)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	folds := make([][]int, k)
	for i, v := range idx {
		folds[i%k] = append(folds[i%k], v)
	}
	return folds, nil
}

// Complement returns all indices in [0,n) not present in fold.
func Complement(fold []int, n int) []int {
	in := make(map[int]bool, len(fold))
	for _, v := range fold {
		in[v] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}
