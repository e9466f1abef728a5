package model

import (
	"math"
	"testing"
)

func TestConfusionAndDerivedMetrics(t *testing.T) {
	pred := []float64{1, 1, 0, 0, 1, 0}
	y := []float64{1, 0, 0, 1, 1, 0}
	cm := Confusion(pred, y)

	if cm.TP != 2 || cm.FP != 1 || cm.TN != 2 || cm.FN != 1 {
		t.Fatalf("confusion = %+v", cm)
	}
	if got := cm.Accuracy(); math.Abs(got-4.0/6.0) > 1e-9 {
		t.Errorf("Accuracy = %v", got)
	}
	if got := cm.Precision(); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("Precision = %v", got)
	}
	if got := cm.Recall(); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("Recall = %v", got)
	}
	if got := cm.F1(); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("F1 = %v", got)
	}
}

func TestMetricsDegenerateCases(t *testing.T) {
	var cm ConfusionMatrix
	if cm.Accuracy() != 0 || cm.Precision() != 0 || cm.Recall() != 0 || cm.F1() != 0 {
		t.Error("empty confusion matrix must not divide by zero")
	}
}

func TestROCPerfectClassifier(t *testing.T) {
	scores := []float64{0.9, 0.8, 0.2, 0.1}
	y := []float64{1, 1, 0, 0}
	_, auc := ROC(scores, y)
	if math.Abs(auc-1.0) > 1e-9 {
		t.Errorf("perfect classifier AUC = %v, want 1", auc)
	}
}

func TestROCRandomScoresTies(t *testing.T) {
	scores := []float64{0.5, 0.5, 0.5, 0.5}
	y := []float64{1, 0, 1, 0}
	curve, auc := ROC(scores, y)
	if math.Abs(auc-0.5) > 1e-9 {
		t.Errorf("all-tied scores AUC = %v, want 0.5", auc)
	}
	last := curve[len(curve)-1]
	if last.FPR != 1 || last.TPR != 1 {
		t.Errorf("curve must end at (1,1), got %+v", last)
	}
}

func TestROCSingleClass(t *testing.T) {
	if _, auc := ROC([]float64{0.3, 0.7}, []float64{1, 1}); auc != 0.5 {
		t.Errorf("single-class AUC = %v, want 0.5 by convention", auc)
	}
}

func TestRegressionMetrics(t *testing.T) {
	pred := []float64{1, 2, 3}
	y := []float64{1, 2, 3}
	if MSE(pred, y) != 0 {
		t.Error("MSE of exact predictions should be 0")
	}
	if R2(pred, y) != 1 {
		t.Error("R2 of exact predictions should be 1")
	}
	// Predicting the mean gives R2 = 0.
	if got := R2([]float64{2, 2, 2}, y); math.Abs(got) > 1e-9 {
		t.Errorf("R2 of mean predictor = %v, want 0", got)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(std-2.138089935) > 1e-6 {
		t.Errorf("std = %v", std)
	}
	if m, s := MeanStd([]float64{3}); m != 3 || s != 0 {
		t.Errorf("single value MeanStd = (%v, %v)", m, s)
	}
}
