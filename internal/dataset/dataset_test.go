package dataset

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"canvaslytics/internal/config"
	"canvaslytics/internal/store"
)

func f64(v float64) *float64 { return &v }

func trainCfg() config.TrainConfig {
	cfg := config.DefaultConfig().Train
	return cfg
}

func TestBuildLabelsAndDrops(t *testing.T) {
	rows := []store.FeatureRow{
		{UserID: 1, PageViews: 100, FinalScore: f64(75)},            // pass
		{UserID: 2, PageViews: 20, FinalScore: f64(40)},             // fail
		{UserID: 3, PageViews: 50, FinalGrade: "F"},                 // fail via letter
		{UserID: 4, PageViews: 80, CurrentScore: f64(90)},           // dropped: no final signal
		{UserID: 5, PageViews: 60, FinalGrade: "A", CurrentScore: f64(88)}, // pass
	}
	ds, err := Build(rows, trainCfg())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ds.Len() != 4 {
		t.Fatalf("got %d samples, want 4 (unlabeled row dropped)", ds.Len())
	}
	wantY := []float64{1, 0, 0, 1}
	for i, w := range wantY {
		if ds.Y[i] != w {
			t.Errorf("Y[%d] = %v, want %v", i, ds.Y[i], w)
		}
	}
	// current_score is the last feature column.
	if got := ds.X.At(3, len(FeatureNames)-1); got != 88 {
		t.Errorf("current_score feature = %v, want 88", got)
	}
}

func TestBuildEmptyErrors(t *testing.T) {
	if _, err := Build(nil, trainCfg()); err == nil {
		t.Error("expected error for empty input")
	}
	unlabeled := []store.FeatureRow{{UserID: 1, CurrentScore: f64(50)}}
	if _, err := Build(unlabeled, trainCfg()); err == nil {
		t.Error("expected error when no rows are labelable")
	}
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	var sc StandardScaler
	scaled, err := sc.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	// Column 0 centered, column 1 constant (centered, not divided).
	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += scaled.At(i, j)
		}
		if math.Abs(sum) > 1e-9 {
			t.Errorf("column %d not centered, sum = %v", j, sum)
		}
	}
	if got := scaled.At(0, 1); got != 0 {
		t.Errorf("constant column should scale to 0, got %v", got)
	}
}

func TestScalerColumnMismatch(t *testing.T) {
	var sc StandardScaler
	if err := sc.Fit(mat.NewDense(2, 3, nil)); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := sc.Transform(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("expected column mismatch error")
	}
}

func TestTrainTestSplitStratified(t *testing.T) {
	// 20 pass, 10 fail
	var rows []store.FeatureRow
	for i := 0; i < 20; i++ {
		rows = append(rows, store.FeatureRow{UserID: int64(i), FinalScore: f64(80)})
	}
	for i := 20; i < 30; i++ {
		rows = append(rows, store.FeatureRow{UserID: int64(i), FinalScore: f64(30)})
	}
	ds, err := Build(rows, trainCfg())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	train, test, err := TrainTestSplit(ds, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}
	if train.Len()+test.Len() != 30 {
		t.Errorf("partition sizes %d+%d != 30", train.Len(), test.Len())
	}
	if test.Len() != 6 {
		t.Errorf("test size = %d, want 6", test.Len())
	}
	// Stratification: test holds 4 pass, 2 fail.
	if b := test.ClassBalance(); math.Abs(b-4.0/6.0) > 1e-9 {
		t.Errorf("test balance = %v, want %v", b, 4.0/6.0)
	}
}

func TestKFoldCoversAllSamples(t *testing.T) {
	folds, err := KFold(23, 5, 1)
	if err != nil {
		t.Fatalf("KFold: %v", err)
	}
	seen := make(map[int]int)
	for _, fold := range folds {
		for _, i := range fold {
			seen[i]++
		}
	}
	if len(seen) != 23 {
		t.Fatalf("folds cover %d samples, want 23", len(seen))
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("sample %d appears %d times", i, n)
		}
	}
	for _, fold := range folds {
		if len(fold) < 4 || len(fold) > 5 {
			t.Errorf("fold size %d outside [4,5]", len(fold))
		}
	}
}

func TestKFoldRejectsBadK(t *testing.T) {
	if _, err := KFold(10, 1, 0); err == nil {
		t.Error("k=1 should error")
	}
	if _, err := KFold(3, 5, 0); err == nil {
		t.Error("k > n should error")
	}
}

func TestComplement(t *testing.T) {
	got := Complement([]int{1, 3}, 5)
	want := []int{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("Complement = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Complement = %v, want %v", got, want)
		}
	}
}
