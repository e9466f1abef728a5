package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canvaslytics/internal/canvas"
	"canvaslytics/internal/dataset"
	"canvaslytics/internal/model"
	"canvaslytics/internal/report"
	"canvaslytics/internal/store"
)

const excerptLength = 240

var reportFlags struct {
	outputDir string
	render    bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate report.md and PNG charts from stored results",
	Long: `report assembles everything computed so far (course scores, career
ranking, model evaluations) into a markdown report with companion charts:
a CPS histogram, held-out ROC curves per classifier, and the forest's
feature importances.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := gatherReportData(db)
		if err != nil {
			return err
		}

		dir := reportFlags.outputDir
		if dir == "" {
			dir = cfg.Report.OutputDir
		}
		if err := report.WriteFiles(dir, data); err != nil {
			return err
		}
		logger.Info("report written", zap.String("dir", dir))
		fmt.Println("wrote", filepath.Join(dir, "report.md"))

		if reportFlags.render {
			out, err := report.Render(report.Markdown(data))
			if err != nil {
				return err
			}
			fmt.Print(out)
		}
		return nil
	},
}

// gatherReportData pulls stored results together and recomputes the
// held-out artifacts (ROC curves, importances) that are not persisted.
func gatherReportData(db *store.Store) (*report.Data, error) {
	data := &report.Data{
		GeneratedAt: time.Now(),
		TopN:        cfg.Report.TopN,
	}

	run, err := db.LatestRun()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	data.Run = run

	scores, err := db.ListCourseScores()
	if err != nil {
		return nil, err
	}
	for _, sc := range scores {
		line := report.CourseLine{CourseScore: sc}
		// A score can outlive its course row when a later extraction
		// narrows the course list; the line then renders by ID only.
		course, err := db.GetCourse(sc.CourseID)
		switch {
		case err == nil:
			line.Name = course.Name
			line.Code = course.CourseCode
			line.Excerpt = canvas.Excerpt(course.Syllabus, excerptLength)
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
		data.Courses = append(data.Courses, line)
	}

	if data.Careers, err = db.ListCareerScores(); err != nil {
		return nil, err
	}
	evals, err := db.ListModelEvals()
	if err != nil {
		return nil, err
	}
	data.Models = report.SummarizeEvals(evals)

	if err := addHeldOutArtifacts(db, data); err != nil {
		// Charts that need a labeled dataset are optional: a snapshot
		// without final grades still gets the score tables.
		logger.Warn("skipping ROC and importance charts", zap.Error(err))
	}
	return data, nil
}

// addHeldOutArtifacts refits the baselines on a train/test split to plot
// ROC curves and forest importances.
func addHeldOutArtifacts(db *store.Store, data *report.Data) error {
	rows, err := db.FeatureRows()
	if err != nil {
		return err
	}
	ds, err := dataset.Build(rows, cfg.Train)
	if err != nil {
		return err
	}
	train, test, err := dataset.TrainTestSplit(ds, cfg.Train.TestSize, cfg.Train.Seed)
	if err != nil {
		return err
	}

	var scaler dataset.StandardScaler
	trainX, err := scaler.FitTransform(train.X)
	if err != nil {
		return err
	}
	testX, err := scaler.Transform(test.X)
	if err != nil {
		return err
	}

	data.ROCCurves = make(map[string][]model.ROCPoint)
	for _, name := range []string{"linear", "logistic", "forest"} {
		clf := classifierFactory(name)()
		if err := clf.Fit(trainX, train.Y); err != nil {
			return fmt.Errorf("fitting %s: %w", name, err)
		}
		curve, _ := model.ROC(clf.PredictProba(testX), test.Y)
		data.ROCCurves[name] = curve

		if forest, ok := clf.(*model.RandomForest); ok {
			for i, w := range forest.FeatureImportances() {
				data.Importances = append(data.Importances, report.Importance{
					Feature: dataset.FeatureNames[i],
					Weight:  w,
				})
			}
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportFlags.outputDir, "output", "o", "", "output directory (default from config)")
	reportCmd.Flags().BoolVar(&reportFlags.render, "render", false, "pretty-print the report to the terminal")
}
