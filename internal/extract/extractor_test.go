package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvaslytics/internal/canvas"
	"canvaslytics/internal/config"
	"canvaslytics/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "extract.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testCanvasClient(t *testing.T, srv *httptest.Server) *canvas.Client {
	t.Helper()
	c, err := canvas.New(config.CanvasConfig{
		BaseURL:        srv.URL,
		Token:          "test-token",
		PerPage:        100,
		MaxConcurrency: 4,
		MaxRetries:     1,
		RequestTimeout: "5s",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		c.CloseIdleConnections()
		srv.Close()
	})
	return c
}

// accountFixture serves a two-course account: course 101 has analytics,
// course 102 does not (its student_summaries endpoint 404s).
func accountFixture() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/courses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":101,"name":"Calculus I","course_code":"MATH-101","workflow_state":"available","enrollment_term_id":5,"account_id":1,"total_students":2},
			{"id":102,"name":"Intro Biology","course_code":"BIO-100","workflow_state":"available","enrollment_term_id":5,"account_id":1,"total_students":1}
		]`)
	})
	mux.HandleFunc("/api/v1/courses/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":101,"name":"Calculus I","course_code":"MATH-101","workflow_state":"available","enrollment_term_id":5,"account_id":1,"total_students":2,"syllabus_body":"<p>Limits and derivatives.</p>"}`)
	})
	mux.HandleFunc("/api/v1/courses/102", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":102,"name":"Intro Biology","course_code":"BIO-100","workflow_state":"available","enrollment_term_id":5,"account_id":1,"total_students":1,"syllabus_body":"<p>Cells.</p>"}`)
	})
	mux.HandleFunc("/api/v1/courses/101/enrollments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":1,"user_id":11,"enrollment_state":"active","grades":{"current_score":88.5,"final_score":90.0,"final_grade":"A-"},"user":{"id":11,"name":"Ada"}},
			{"id":2,"user_id":12,"enrollment_state":"active","grades":{"current_score":55.0},"user":{"id":12,"name":"Ben"}}
		]`)
	})
	mux.HandleFunc("/api/v1/courses/102/enrollments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":3,"user_id":13,"enrollment_state":"completed","grades":{"final_score":72.0,"final_grade":"C"},"user":{"id":13,"name":"Cy"}}]`)
	})
	mux.HandleFunc("/api/v1/courses/101/analytics/student_summaries", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":11,"page_views":340,"participations":25,"tardiness_breakdown":{"missing":0,"late":1,"on_time":9,"total":10}},
			{"id":12,"page_views":40,"participations":2,"tardiness_breakdown":{"missing":5,"late":2,"on_time":3,"total":10}}
		]`)
	})
	mux.HandleFunc("/api/v1/courses/102/analytics/student_summaries", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors":[{"message":"The specified resource does not exist."}]}`)
	})
	return mux
}

// withQuotaHeaders stamps Canvas quota headers on every response.
func withQuotaHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Remaining", "642.5")
		w.Header().Set("X-Request-Cost", "1.0")
		next.ServeHTTP(w, r)
	})
}

func TestRunExtractsAccount(t *testing.T) {
	srv := httptest.NewServer(withQuotaHeaders(accountFixture()))
	client := testCanvasClient(t, srv)
	db := testStore(t)

	e := New(client, db, zap.NewNop())
	run, err := e.Run(context.Background(), Options{AccountID: 1, Concurrency: 2})
	require.NoError(t, err)

	require.Equal(t, "completed", run.Status)
	require.EqualValues(t, 2, run.Courses)
	require.EqualValues(t, 3, run.Students)
	require.NotEmpty(t, run.ID)

	courses, err := db.ListCourses()
	require.NoError(t, err)
	require.Len(t, courses, 2)
	// Syllabus backfilled from the detail endpoint.
	require.Contains(t, courses[0].Syllabus, "Limits and derivatives")

	enrollments, err := db.ListEnrollments(101)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)

	// Course 102 has no analytics; the run still completes.
	summaries, err := db.ListSummaries(102)
	require.NoError(t, err)
	require.Empty(t, summaries)
	summaries, err = db.ListSummaries(101)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	latest, err := db.LatestRun()
	require.NoError(t, err)
	require.Equal(t, run.ID, latest.ID)
	require.Equal(t, "completed", latest.Status)
	require.NotNil(t, latest.FinishedAt)

	// The quota snapshot from the last response persists on the run row.
	require.Equal(t, 642.5, latest.QuotaRemaining)
	require.Positive(t, latest.APICalls)
	require.Positive(t, latest.APICost)
}

func TestRunExplicitCoursesWithSubmissions(t *testing.T) {
	mux := accountFixture()
	mux.HandleFunc("/api/v1/courses/101/students/submissions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":501,"assignment_id":9,"user_id":11,"score":95,"late":false,"missing":false,"workflow_state":"graded"},
			{"id":502,"assignment_id":9,"user_id":12,"late":true,"missing":false,"workflow_state":"submitted"}
		]`)
	})
	srv := httptest.NewServer(mux)
	client := testCanvasClient(t, srv)
	db := testStore(t)

	e := New(client, db, zap.NewNop())
	run, err := e.Run(context.Background(), Options{
		CourseIDs:          []int64{101},
		IncludeSubmissions: true,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, run.Courses)

	counts, err := db.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 2, counts["submissions"])
	require.EqualValues(t, 1, counts["courses"])
}

func TestRunRecordsFailure(t *testing.T) {
	srv := httptest.NewServer(failingFixture())
	client := testCanvasClient(t, srv)
	db := testStore(t)

	e := New(client, db, zap.NewNop())
	run, err := e.Run(context.Background(), Options{AccountID: 1, Concurrency: 1})
	require.Error(t, err)
	require.Equal(t, "failed", run.Status)
	require.NotEmpty(t, run.Error)

	latest, dberr := db.LatestRun()
	require.NoError(t, dberr)
	require.Equal(t, "failed", latest.Status)
}

// failingFixture serves one course whose enrollments endpoint always
// returns a server error.
func failingFixture() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/courses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":101,"name":"Calculus I","course_code":"MATH-101","workflow_state":"available","enrollment_term_id":5,"account_id":1,"total_students":2,"syllabus_body":"<p>x</p>"}]`)
	})
	mux.HandleFunc("/api/v1/courses/101/enrollments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors":[{"message":"boom"}]}`)
	})
	return mux
}
