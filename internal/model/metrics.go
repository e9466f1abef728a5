package model

import (
	"math"
	"sort"
)

// ConfusionMatrix counts binary outcomes with pass as the positive class.
type ConfusionMatrix struct {
	TP, FP, TN, FN float64
}

// Confusion tallies predictions against labels.
func Confusion(pred, y []float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i := range y {
		switch {
		case pred[i] == 1 && y[i] == 1:
			cm.TP++
		case pred[i] == 1 && y[i] == 0:
			cm.FP++
		case pred[i] == 0 && y[i] == 0:
			cm.TN++
		default:
			cm.FN++
		}
	}
	return cm
}

// Accuracy is the fraction of correct predictions.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.TP + cm.FP + cm.TN + cm.FN
	if total == 0 {
		return 0
	}
	return (cm.TP + cm.TN) / total
}

// Precision is TP / (TP + FP); zero when nothing was predicted positive.
func (cm ConfusionMatrix) Precision() float64 {
	if cm.TP+cm.FP == 0 {
		return 0
	}
	return cm.TP / (cm.TP + cm.FP)
}

// Recall is TP / (TP + FN); zero when there are no positives.
func (cm ConfusionMatrix) Recall() float64 {
	if cm.TP+cm.FN == 0 {
		return 0
	}
	return cm.TP / (cm.TP + cm.FN)
}

// F1 is the harmonic mean of precision and recall.
func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// ROCPoint is one point of a ROC curve.
type ROCPoint struct {
	FPR, TPR float64
}

// ROC computes the curve and area under it from scores and labels.
// Degenerate label sets (all one class) return AUC 0.5 by convention.
func ROC(scores, y []float64) ([]ROCPoint, float64) {
	type pair struct{ score, label float64 }
	pairs := make([]pair, len(y))
	pos, neg := 0.0, 0.0
	for i := range y {
		pairs[i] = pair{scores[i], y[i]}
		if y[i] == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return []ROCPoint{{0, 0}, {1, 1}}, 0.5
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	curve := []ROCPoint{{0, 0}}
	tp, fp := 0.0, 0.0
	auc := 0.0
	prev := ROCPoint{0, 0}
	for i := 0; i < len(pairs); {
		// Consume ties at once so the curve steps diagonally through them.
		score := pairs[i].score
		for i < len(pairs) && pairs[i].score == score {
			if pairs[i].label == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		pt := ROCPoint{FPR: fp / neg, TPR: tp / pos}
		auc += (pt.FPR - prev.FPR) * (pt.TPR + prev.TPR) / 2
		curve = append(curve, pt)
		prev = pt
	}
	return curve, auc
}

// MSE is the mean squared error of raw predictions.
func MSE(pred, y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		d := pred[i] - y[i]
		sum += d * d
	}
	return sum / float64(len(y))
}

// R2 is the coefficient of determination; can be negative for models
// worse than predicting the mean.
func R2(pred, y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	ssTot, ssRes := 0.0, 0.0
	for i := range y {
		ssTot += (y[i] - mean) * (y[i] - mean)
		ssRes += (y[i] - pred[i]) * (y[i] - pred[i])
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Metrics bundles one evaluation of a classifier.
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	AUC       float64
	MSE       float64
	R2        float64
}

// Evaluate scores probability outputs against labels.
func Evaluate(probs, y []float64) Metrics {
	cm := Confusion(Classify(probs), y)
	_, auc := ROC(probs, y)
	return Metrics{
		Accuracy:  cm.Accuracy(),
		Precision: cm.Precision(),
		Recall:    cm.Recall(),
		F1:        cm.F1(),
		AUC:       auc,
		MSE:       MSE(probs, y),
		R2:        R2(probs, y),
	}
}

// MeanStd summarizes a metric across folds.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(std / float64(len(values)-1))
}
