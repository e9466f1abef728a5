package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvaslytics/internal/canvas"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func f64(v float64) *float64 { return &v }

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopen applies no migrations and must not error.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	counts, err := s2.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts["courses"])
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)

	run := &Run{ID: "run-1", AccountID: 1, TermID: 5}
	require.NoError(t, s.CreateRun(run))

	run.Status = "completed"
	run.Courses = 3
	run.Students = 120
	run.APICost = 42.5
	run.QuotaRemaining = 657.5
	run.APICalls = 18
	run.APIRetries = 2
	require.NoError(t, s.FinishRun(run))

	got, err := s.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, int64(120), got.Students)
	assert.Equal(t, 657.5, got.QuotaRemaining)
	assert.Equal(t, int64(18), got.APICalls)
	assert.Equal(t, int64(2), got.APIRetries)
	assert.NotNil(t, got.FinishedAt)
}

func TestLatestRunEmpty(t *testing.T) {
	s := testStore(t)
	_, err := s.LatestRun()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFinishUnknownRun(t *testing.T) {
	s := testStore(t)
	err := s.FinishRun(&Run{ID: "ghost", Status: "failed"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertCoursesRefreshes(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.UpsertCourses("run-1", []canvas.Course{
		{ID: 10, Name: "Calculus I", CourseCode: "MATH 101", TotalStudents: 25, SyllabusBody: "<p>hi</p>"},
	}))
	// Second extraction updates in place; empty syllabus must not clobber.
	require.NoError(t, s.UpsertCourses("run-2", []canvas.Course{
		{ID: 10, Name: "Calculus I", CourseCode: "MATH 101", TotalStudents: 31},
	}))

	courses, err := s.ListCourses()
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 31, courses[0].TotalStudents)
	assert.Equal(t, "<p>hi</p>", courses[0].Syllabus)
}

func TestEnrollmentScoresNullable(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.UpsertEnrollments(10, []canvas.Enrollment{
		{ID: 1, UserID: 100, State: "active", Grades: canvas.Grades{CurrentScore: f64(82.3), FinalGrade: "B"}},
		{ID: 2, UserID: 101, State: "active"}, // no grades yet
	}))

	rows, err := s.ListEnrollments(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].CurrentScore)
	assert.Equal(t, 82.3, *rows[0].CurrentScore)
	assert.Nil(t, rows[1].CurrentScore)
	assert.Nil(t, rows[1].FinalScore)
}

func TestFeatureRowsJoin(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.UpsertEnrollments(10, []canvas.Enrollment{
		{ID: 1, UserID: 100, Grades: canvas.Grades{FinalScore: f64(71)}},
		{ID: 2, UserID: 101, Grades: canvas.Grades{FinalScore: f64(44)}},
		{ID: 3, UserID: 102}, // no summary: excluded from features
	}))
	require.NoError(t, s.UpsertStudentSummaries(10, []canvas.StudentSummary{
		{ID: 100, PageViews: 300, Participations: 12,
			TardinessBreakdown: canvas.TardinessBreakdown{Missing: 1, Late: 2, OnTime: 9}},
		{ID: 101, PageViews: 40, Participations: 1,
			TardinessBreakdown: canvas.TardinessBreakdown{Missing: 6, Late: 3, OnTime: 2}},
	}))
	require.NoError(t, s.UpsertSubmissions(10, []canvas.Submission{
		{ID: 1000, AssignmentID: 1, UserID: 100, Late: true},
		{ID: 1001, AssignmentID: 2, UserID: 100, Late: true},
		{ID: 1002, AssignmentID: 1, UserID: 101, Missing: true},
	}))

	rows, err := s.FeatureRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(100), rows[0].UserID)
	assert.Equal(t, 300.0, rows[0].PageViews)
	assert.Equal(t, 2.0, rows[0].LateSubs)
	assert.Equal(t, 0.0, rows[0].MissingSubs)
	assert.Equal(t, 1.0, rows[1].MissingSubs)
	require.NotNil(t, rows[1].FinalScore)
	assert.Equal(t, 44.0, *rows[1].FinalScore)
}

func TestCourseScoresRoundTrip(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.SaveCourseScores([]CourseScore{
		{CourseID: 10, Career: "MATH", Tier: "medium", CPS: 71.5, Coverage: 0.4},
		{CourseID: 11, Career: "CS", Tier: "large", CPS: 88.0, Coverage: 0.9},
	}))
	// Re-score overwrites.
	require.NoError(t, s.SaveCourseScores([]CourseScore{
		{CourseID: 10, Career: "MATH", Tier: "medium", CPS: 74.0, Coverage: 0.6},
	}))

	scores, err := s.ListCourseScores()
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, int64(11), scores[0].CourseID) // ordered by CPS desc
	assert.Equal(t, 0.9, scores[0].Coverage)
	assert.Equal(t, 74.0, scores[1].CPS)
	assert.Equal(t, 0.6, scores[1].Coverage)
}

func TestCareerScoresRoundTrip(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.SaveCareerScores([]CareerScore{
		{Career: "CS", Score: 81, MeanCPS: 75, Courses: 12, TierLarge: 4},
		{Career: "HIST", Score: 40, MeanCPS: 35, Courses: 6},
	}))
	scores, err := s.ListCareerScores()
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "CS", scores[0].Career)
	assert.Equal(t, int64(4), scores[0].TierLarge)
}

func TestModelEvalsLatestRunOnly(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.SaveModelEvals([]ModelEval{
		{RunID: "t1", Model: "logistic", Fold: 1, Accuracy: 0.8},
	}))
	require.NoError(t, s.SaveModelEvals([]ModelEval{
		{RunID: "t2", Model: "logistic", Fold: 1, Accuracy: 0.85},
		{RunID: "t2", Model: "forest", Fold: 1, Accuracy: 0.9},
	}))

	evals, err := s.ListModelEvals()
	require.NoError(t, err)
	require.Len(t, evals, 2)
	for _, e := range evals {
		assert.Equal(t, "t2", e.RunID)
	}
}
