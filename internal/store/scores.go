package store

import (
	"database/sql"
	"fmt"
)

// CourseScore is the Course Prediction Score of one course with its
// weighted components, as computed by the scoring package. Coverage is
// the raw [0,1] signal before weighting; career aggregation reads it so
// a weight change between scoring runs cannot skew it.
type CourseScore struct {
	CourseID int64
	Career   string
	Tier     string
	CPS      float64
	Coverage float64

	EnrollmentComponent   float64
	BalanceComponent      float64
	CoverageComponent     float64
	VarianceComponent     float64
	CompletenessComponent float64
}

// CareerScore is the Career Potential Score of one program.
type CareerScore struct {
	Career   string
	Score    float64
	MeanCPS  float64
	Coverage float64
	Courses  int64

	TierTiny   int64
	TierSmall  int64
	TierMedium int64
	TierLarge  int64
}

// ModelEval is one fold (or the aggregate, fold 0) of a baseline's
// cross-validation metrics.
type ModelEval struct {
	RunID     string
	Model     string
	Fold      int
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	AUC       float64
	MSE       float64
	R2        float64
}

// SaveCourseScores replaces the stored course scores.
func (s *Store) SaveCourseScores(scores []CourseScore) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO course_scores
				(course_id, career, tier, cps, coverage, enrollment_component, balance_component,
				 coverage_component, variance_component, completeness_component, scored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(course_id) DO UPDATE SET
				career = excluded.career,
				tier = excluded.tier,
				cps = excluded.cps,
				coverage = excluded.coverage,
				enrollment_component = excluded.enrollment_component,
				balance_component = excluded.balance_component,
				coverage_component = excluded.coverage_component,
				variance_component = excluded.variance_component,
				completeness_component = excluded.completeness_component,
				scored_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sc := range scores {
			if _, err := stmt.Exec(sc.CourseID, sc.Career, sc.Tier, sc.CPS, sc.Coverage,
				sc.EnrollmentComponent, sc.BalanceComponent, sc.CoverageComponent,
				sc.VarianceComponent, sc.CompletenessComponent); err != nil {
				return fmt.Errorf("saving course score %d: %w", sc.CourseID, err)
			}
		}
		return nil
	})
}

// ListCourseScores returns stored course scores, highest CPS first.
func (s *Store) ListCourseScores() ([]CourseScore, error) {
	rows, err := s.db.Query(`
		SELECT course_id, career, tier, cps, coverage, enrollment_component, balance_component,
		       coverage_component, variance_component, completeness_component
		FROM course_scores ORDER BY cps DESC, course_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseScore
	for rows.Next() {
		var sc CourseScore
		if err := rows.Scan(&sc.CourseID, &sc.Career, &sc.Tier, &sc.CPS, &sc.Coverage,
			&sc.EnrollmentComponent, &sc.BalanceComponent, &sc.CoverageComponent,
			&sc.VarianceComponent, &sc.CompletenessComponent); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// SaveCareerScores replaces the stored career scores.
func (s *Store) SaveCareerScores(scores []CareerScore) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO career_scores
				(career, score, mean_cps, coverage, courses, tier_tiny, tier_small, tier_medium, tier_large, scored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(career) DO UPDATE SET
				score = excluded.score,
				mean_cps = excluded.mean_cps,
				coverage = excluded.coverage,
				courses = excluded.courses,
				tier_tiny = excluded.tier_tiny,
				tier_small = excluded.tier_small,
				tier_medium = excluded.tier_medium,
				tier_large = excluded.tier_large,
				scored_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sc := range scores {
			if _, err := stmt.Exec(sc.Career, sc.Score, sc.MeanCPS, sc.Coverage, sc.Courses,
				sc.TierTiny, sc.TierSmall, sc.TierMedium, sc.TierLarge); err != nil {
				return fmt.Errorf("saving career score %q: %w", sc.Career, err)
			}
		}
		return nil
	})
}

// ListCareerScores returns stored career scores, best first.
func (s *Store) ListCareerScores() ([]CareerScore, error) {
	rows, err := s.db.Query(`
		SELECT career, score, mean_cps, coverage, courses, tier_tiny, tier_small, tier_medium, tier_large
		FROM career_scores ORDER BY score DESC, career`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CareerScore
	for rows.Next() {
		var sc CareerScore
		if err := rows.Scan(&sc.Career, &sc.Score, &sc.MeanCPS, &sc.Coverage, &sc.Courses,
			&sc.TierTiny, &sc.TierSmall, &sc.TierMedium, &sc.TierLarge); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// SaveModelEvals appends evaluation rows for a training run.
func (s *Store) SaveModelEvals(evals []ModelEval) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO model_evals (run_id, model, fold, accuracy, precision, recall, f1, auc, mse, r2)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range evals {
			if _, err := stmt.Exec(e.RunID, e.Model, e.Fold, e.Accuracy, e.Precision,
				e.Recall, e.F1, e.AUC, e.MSE, e.R2); err != nil {
				return fmt.Errorf("saving eval for %s fold %d: %w", e.Model, e.Fold, err)
			}
		}
		return nil
	})
}

// ListModelEvals returns the evaluations of the most recent training run.
func (s *Store) ListModelEvals() ([]ModelEval, error) {
	rows, err := s.db.Query(`
		SELECT run_id, model, fold, accuracy, precision, recall, f1, auc, mse, r2
		FROM model_evals
		WHERE run_id = (SELECT run_id FROM model_evals ORDER BY created_at DESC, id DESC LIMIT 1)
		ORDER BY model, fold`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModelEval
	for rows.Next() {
		var e ModelEval
		if err := rows.Scan(&e.RunID, &e.Model, &e.Fold, &e.Accuracy, &e.Precision,
			&e.Recall, &e.F1, &e.AUC, &e.MSE, &e.R2); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
