package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canvaslytics/internal/dataset"
	"canvaslytics/internal/model"
	"canvaslytics/internal/store"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and cross-validate the pass/fail baseline models",
	Long: `train builds the feature matrix from the snapshot (engagement
summaries joined with enrollments) and cross-validates three baselines:
ridge linear regression, logistic regression, and a random forest.
Per-fold metrics are persisted for the report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := db.FeatureRows()
		if err != nil {
			return err
		}
		ds, err := dataset.Build(rows, cfg.Train)
		if err != nil {
			return err
		}
		logger.Info("dataset built",
			zap.Int("samples", ds.Len()),
			zap.Float64("pass_rate", ds.ClassBalance()))

		runID := uuid.NewString()
		var evals []store.ModelEval

		fmt.Printf("%-10s %-18s %-18s %-18s\n", "model", "accuracy", "f1", "auc")
		for _, name := range []string{"linear", "logistic", "forest"} {
			cv, err := model.CrossValidate(name, ds, cfg.Train.Folds, cfg.Train.Seed, classifierFactory(name))
			if err != nil {
				return fmt.Errorf("cross-validating %s: %w", name, err)
			}
			for _, fold := range cv.Folds {
				evals = append(evals, store.ModelEval{
					RunID:     runID,
					Model:     name,
					Fold:      fold.Fold,
					Accuracy:  fold.Metrics.Accuracy,
					Precision: fold.Metrics.Precision,
					Recall:    fold.Metrics.Recall,
					F1:        fold.Metrics.F1,
					AUC:       fold.Metrics.AUC,
					MSE:       fold.Metrics.MSE,
					R2:        fold.Metrics.R2,
				})
			}
			fmt.Printf("%-10s %.3f ± %-10.3f %.3f ± %-10.3f %.3f ± %-10.3f\n",
				name, cv.AccuracyMean, cv.AccuracyStd, cv.F1Mean, cv.F1Std, cv.AUCMean, cv.AUCStd)
		}

		if err := db.SaveModelEvals(evals); err != nil {
			return err
		}
		logger.Info("model evaluations saved",
			zap.String("run_id", runID),
			zap.Int("rows", len(evals)))
		return nil
	},
}

// classifierFactory returns a fresh-model constructor for each baseline.
func classifierFactory(name string) func() model.Classifier {
	t := cfg.Train
	switch name {
	case "linear":
		return func() model.Classifier { return model.NewLinearRegression(t.L2) }
	case "logistic":
		return func() model.Classifier { return model.NewLogisticRegression(t.LearningRate, t.Epochs, t.L2) }
	default:
		return func() model.Classifier {
			return model.NewRandomForest(
				model.WithTrees(t.Trees),
				model.WithMaxDepth(t.MaxDepth),
				model.WithMinSamplesSplit(t.MinSamplesSplit),
				model.WithSeed(t.Seed),
			)
		}
	}
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
