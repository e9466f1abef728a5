package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canvaslytics/internal/scoring"
	"canvaslytics/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the Course Prediction Score for every stored course",
	Long: `score walks the stored courses and computes each one's CPS: a
weighted sum of enrollment size, pass/fail balance, engagement coverage,
grade variance, and grading completeness. Results are persisted and the
top courses printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		inputs, err := loadScoringInputs(db)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no courses in store; run `canvaslytics extract` first")
		}

		scorer := scoring.New(cfg.Scoring, cfg.Train.PassThreshold)
		scores := scorer.ScoreAll(inputs)
		if err := db.SaveCourseScores(scores); err != nil {
			return err
		}
		logger.Info("course scores saved", zap.Int("courses", len(scores)))

		n := cfg.Report.TopN
		if n > len(scores) {
			n = len(scores)
		}
		fmt.Printf("%-4s %-10s %-8s %8s\n", "rank", "career", "tier", "cps")
		for i, sc := range scores[:n] {
			fmt.Printf("%-4d %-10s %-8s %8.1f  (course %d)\n", i+1, sc.Career, sc.Tier, sc.CPS, sc.CourseID)
		}
		return nil
	},
}

// loadScoringInputs gathers each course with its enrollments and
// summaries from the snapshot.
func loadScoringInputs(db *store.Store) ([]scoring.CourseInput, error) {
	courses, err := db.ListCourses()
	if err != nil {
		return nil, err
	}
	inputs := make([]scoring.CourseInput, 0, len(courses))
	for _, c := range courses {
		enrollments, err := db.ListEnrollments(c.ID)
		if err != nil {
			return nil, err
		}
		summaries, err := db.ListSummaries(c.ID)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, scoring.CourseInput{
			Course:      c,
			Enrollments: enrollments,
			Summaries:   summaries,
		})
	}
	return inputs, nil
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
