package store

import (
	"database/sql"
	"errors"
	"fmt"

	"canvaslytics/internal/canvas"
)

// CourseRow is a stored course.
type CourseRow struct {
	ID            int64
	Name          string
	CourseCode    string
	WorkflowState string
	TermID        int64
	AccountID     int64
	TotalStudents int
	Syllabus      string
}

// EnrollmentRow is a stored student enrollment with its grade block
// flattened. Nil scores mean Canvas had no grade yet.
type EnrollmentRow struct {
	ID           int64
	CourseID     int64
	UserID       int64
	UserName     string
	State        string
	CurrentScore *float64
	FinalScore   *float64
	CurrentGrade string
	FinalGrade   string
}

// SummaryRow is a stored per-student engagement summary.
type SummaryRow struct {
	CourseID          int64
	UserID            int64
	PageViews         float64
	MaxPageViews      float64
	Participations    float64
	MaxParticipations float64
	TardyMissing      float64
	TardyLate         float64
	TardyOnTime       float64
	TardyFloating     float64
}

// UpsertCourses refreshes course rows from an API page.
func (s *Store) UpsertCourses(runID string, courses []canvas.Course) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO courses (id, name, course_code, workflow_state, term_id, account_id, total_students, syllabus, run_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				course_code = excluded.course_code,
				workflow_state = excluded.workflow_state,
				term_id = excluded.term_id,
				account_id = excluded.account_id,
				total_students = excluded.total_students,
				syllabus = CASE WHEN excluded.syllabus != '' THEN excluded.syllabus ELSE courses.syllabus END,
				run_id = excluded.run_id,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range courses {
			if _, err := stmt.Exec(c.ID, c.Name, c.CourseCode, c.WorkflowState,
				c.EnrollmentTermID, c.AccountID, c.TotalStudents, c.SyllabusBody, runID); err != nil {
				return fmt.Errorf("upserting course %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// UpsertEnrollments refreshes enrollment rows for a course.
func (s *Store) UpsertEnrollments(courseID int64, enrollments []canvas.Enrollment) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO enrollments (id, course_id, user_id, user_name, state, current_score, final_score, current_grade, final_grade, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				state = excluded.state,
				user_name = excluded.user_name,
				current_score = excluded.current_score,
				final_score = excluded.final_score,
				current_grade = excluded.current_grade,
				final_grade = excluded.final_grade,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range enrollments {
			if _, err := stmt.Exec(e.ID, courseID, e.UserID, e.User.Name, e.State,
				e.Grades.CurrentScore, e.Grades.FinalScore,
				e.Grades.CurrentGrade, e.Grades.FinalGrade); err != nil {
				return fmt.Errorf("upserting enrollment %d: %w", e.ID, err)
			}
		}
		return nil
	})
}

// UpsertStudentSummaries refreshes analytics summaries for a course.
func (s *Store) UpsertStudentSummaries(courseID int64, summaries []canvas.StudentSummary) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO student_summaries
				(course_id, user_id, page_views, max_page_views, participations, max_participations,
				 tardy_missing, tardy_late, tardy_on_time, tardy_floating)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(course_id, user_id) DO UPDATE SET
				page_views = excluded.page_views,
				max_page_views = excluded.max_page_views,
				participations = excluded.participations,
				max_participations = excluded.max_participations,
				tardy_missing = excluded.tardy_missing,
				tardy_late = excluded.tardy_late,
				tardy_on_time = excluded.tardy_on_time,
				tardy_floating = excluded.tardy_floating`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sum := range summaries {
			if _, err := stmt.Exec(courseID, sum.ID, sum.PageViews, sum.MaxPageViews,
				sum.Participations, sum.MaxParticipations,
				sum.TardinessBreakdown.Missing, sum.TardinessBreakdown.Late,
				sum.TardinessBreakdown.OnTime, sum.TardinessBreakdown.Floating); err != nil {
				return fmt.Errorf("upserting summary for user %d: %w", sum.ID, err)
			}
		}
		return nil
	})
}

// UpsertSubmissions refreshes submission rows for a course.
func (s *Store) UpsertSubmissions(courseID int64, submissions []canvas.Submission) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO submissions (id, course_id, assignment_id, user_id, score, late, missing, workflow_state, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				score = excluded.score,
				late = excluded.late,
				missing = excluded.missing,
				workflow_state = excluded.workflow_state,
				submitted_at = excluded.submitted_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sub := range submissions {
			if _, err := stmt.Exec(sub.ID, courseID, sub.AssignmentID, sub.UserID,
				sub.Score, sub.Late, sub.Missing, sub.WorkflowState, sub.SubmittedAt); err != nil {
				return fmt.Errorf("upserting submission %d: %w", sub.ID, err)
			}
		}
		return nil
	})
}

// ListCourses returns all stored courses.
func (s *Store) ListCourses() ([]CourseRow, error) {
	rows, err := s.db.Query(`
		SELECT id, name, course_code, workflow_state, term_id, account_id, total_students, syllabus
		FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseRow
	for rows.Next() {
		var c CourseRow
		if err := rows.Scan(&c.ID, &c.Name, &c.CourseCode, &c.WorkflowState,
			&c.TermID, &c.AccountID, &c.TotalStudents, &c.Syllabus); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCourse returns one stored course.
func (s *Store) GetCourse(id int64) (*CourseRow, error) {
	var c CourseRow
	err := s.db.QueryRow(`
		SELECT id, name, course_code, workflow_state, term_id, account_id, total_students, syllabus
		FROM courses WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.CourseCode, &c.WorkflowState,
			&c.TermID, &c.AccountID, &c.TotalStudents, &c.Syllabus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListEnrollments returns the student enrollments of a course.
func (s *Store) ListEnrollments(courseID int64) ([]EnrollmentRow, error) {
	rows, err := s.db.Query(`
		SELECT id, course_id, user_id, user_name, state, current_score, final_score, current_grade, final_grade
		FROM enrollments WHERE course_id = ? ORDER BY user_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrollmentRow
	for rows.Next() {
		var e EnrollmentRow
		var cur, fin sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.CourseID, &e.UserID, &e.UserName, &e.State,
			&cur, &fin, &e.CurrentGrade, &e.FinalGrade); err != nil {
			return nil, err
		}
		if cur.Valid {
			e.CurrentScore = &cur.Float64
		}
		if fin.Valid {
			e.FinalScore = &fin.Float64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSummaries returns the engagement summaries of a course.
func (s *Store) ListSummaries(courseID int64) ([]SummaryRow, error) {
	rows, err := s.db.Query(`
		SELECT course_id, user_id, page_views, max_page_views, participations, max_participations,
		       tardy_missing, tardy_late, tardy_on_time, tardy_floating
		FROM student_summaries WHERE course_id = ? ORDER BY user_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.CourseID, &r.UserID, &r.PageViews, &r.MaxPageViews,
			&r.Participations, &r.MaxParticipations,
			&r.TardyMissing, &r.TardyLate, &r.TardyOnTime, &r.TardyFloating); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FeatureRow joins enrollment, summary, and submission aggregates for one
// student-course pair. It is the raw material of the training dataset.
type FeatureRow struct {
	CourseID       int64
	UserID         int64
	PageViews      float64
	Participations float64
	TardyMissing   float64
	TardyLate      float64
	TardyOnTime    float64
	LateSubs       float64
	MissingSubs    float64
	CurrentScore   *float64
	FinalScore     *float64
	FinalGrade     string
}

// FeatureRows returns one row per student-course pair that has an
// engagement summary. Students without summaries carry no activity
// signal and are excluded by the inner join.
func (s *Store) FeatureRows() ([]FeatureRow, error) {
	rows, err := s.db.Query(`
		SELECT e.course_id, e.user_id,
		       ss.page_views, ss.participations,
		       ss.tardy_missing, ss.tardy_late, ss.tardy_on_time,
		       COALESCE(sub.late_count, 0), COALESCE(sub.missing_count, 0),
		       e.current_score, e.final_score, e.final_grade
		FROM enrollments e
		JOIN student_summaries ss
		  ON ss.course_id = e.course_id AND ss.user_id = e.user_id
		LEFT JOIN (
			SELECT course_id, user_id,
			       SUM(late) AS late_count,
			       SUM(missing) AS missing_count
			FROM submissions GROUP BY course_id, user_id
		) sub ON sub.course_id = e.course_id AND sub.user_id = e.user_id
		ORDER BY e.course_id, e.user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeatureRow
	for rows.Next() {
		var r FeatureRow
		var cur, fin sql.NullFloat64
		if err := rows.Scan(&r.CourseID, &r.UserID,
			&r.PageViews, &r.Participations,
			&r.TardyMissing, &r.TardyLate, &r.TardyOnTime,
			&r.LateSubs, &r.MissingSubs,
			&cur, &fin, &r.FinalGrade); err != nil {
			return nil, err
		}
		if cur.Valid {
			r.CurrentScore = &cur.Float64
		}
		if fin.Valid {
			r.FinalScore = &fin.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
