package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canvaslytics/internal/report"
	"canvaslytics/internal/scoring"
)

var careersCmd = &cobra.Command{
	Use:   "careers",
	Short: "Rank careers by aggregated course prediction potential",
	Long: `careers groups stored course scores by program (the letter prefix of
the course code) and computes each one's Career Potential Score from its
tier mix, mean CPS, analytics coverage, and score spread.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		courseScores, err := db.ListCourseScores()
		if err != nil {
			return err
		}
		if len(courseScores) == 0 {
			return fmt.Errorf("no course scores; run `canvaslytics score` first")
		}

		scorer := scoring.New(cfg.Scoring, cfg.Train.PassThreshold)
		careers := scorer.ScoreCareers(courseScores)
		if err := db.SaveCareerScores(careers); err != nil {
			return err
		}
		logger.Info("career scores saved", zap.Int("careers", len(careers)))

		fmt.Println(report.RankingView(careers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(careersCmd)
}
