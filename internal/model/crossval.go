package model

import (
	"fmt"

	"canvaslytics/internal/dataset"
)

// FoldResult is the evaluation of one held-out fold.
type FoldResult struct {
	Fold    int
	Metrics Metrics
}

// CVResult is a full cross-validation of one model.
type CVResult struct {
	Model string
	Folds []FoldResult

	AccuracyMean, AccuracyStd float64
	F1Mean, F1Std             float64
	AUCMean, AUCStd           float64
}

// CrossValidate runs k-fold cross-validation. factory must return a
// fresh untrained classifier per fold. Features are standardized inside
// each fold using train-split statistics only.
func CrossValidate(name string, ds *dataset.Dataset, k int, seed int64, factory func() Classifier) (*CVResult, error) {
	folds, err := dataset.KFold(ds.Len(), k, seed)
	if err != nil {
		return nil, err
	}

	result := &CVResult{Model: name}
	var accs, f1s, aucs []float64

	for fi, testIdx := range folds {
		trainIdx := dataset.Complement(testIdx, ds.Len())
		train := ds.Subset(trainIdx)
		test := ds.Subset(testIdx)

		var scaler dataset.StandardScaler
		trainX, err := scaler.FitTransform(train.X)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fi+1, err)
		}
		testX, err := scaler.Transform(test.X)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fi+1, err)
		}

		clf := factory()
		if err := clf.Fit(trainX, train.Y); err != nil {
			return nil, fmt.Errorf("fold %d: fitting %s: %w", fi+1, name, err)
		}
		m := Evaluate(clf.PredictProba(testX), test.Y)

		result.Folds = append(result.Folds, FoldResult{Fold: fi + 1, Metrics: m})
		accs = append(accs, m.Accuracy)
		f1s = append(f1s, m.F1)
		aucs = append(aucs, m.AUC)
	}

	result.AccuracyMean, result.AccuracyStd = MeanStd(accs)
	result.F1Mean, result.F1Std = MeanStd(f1s)
	result.AUCMean, result.AUCStd = MeanStd(aucs)
	return result, nil
}
