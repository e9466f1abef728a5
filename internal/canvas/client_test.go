package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"canvaslytics/internal/config"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(config.CanvasConfig{
		BaseURL:        srv.URL,
		Token:          "test-token",
		PerPage:        2,
		MaxConcurrency: 2,
		QuotaFloor:     0, // no throttling in tests
		MaxRetries:     3,
		RequestTimeout: "5s",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		c.CloseIdleConnections()
		srv.Close()
	})
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(config.CanvasConfig{Token: "x"}, nil); err == nil {
		t.Error("expected error for missing base_url")
	}
	if _, err := New(config.CanvasConfig{BaseURL: "https://c.example.edu"}, nil); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestPagerFollowsLinkHeaders(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/api/v1/courses/7/enrollments", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses/7/enrollments?page=2>; rel="next", <%s/api/v1/courses/7/enrollments?page=2>; rel="last"`, srv.URL, srv.URL))
			fmt.Fprint(w, `[{"id":1,"user_id":11},{"id":2,"user_id":12}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"user_id":13}]`)
		}
	})
	srv = httptest.NewServer(mux)
	c := testClient(t, srv)

	all, err := c.EnrollmentsPager(7).All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(all) != 3 {
		t.Fatalf("got %d enrollments, want 3", len(all))
	}
	if all[2].UserID != 13 {
		t.Errorf("last enrollment user = %d, want 13", all[2].UserID)
	}
}

func TestPagerStopsWithoutNextLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1}]`)
	}))
	c := testClient(t, srv)

	p := c.StudentSummariesPager(9)
	page, ok, err := p.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("first Next: ok=%v err=%v", ok, err)
	}
	if len(page) != 1 {
		t.Fatalf("got %d summaries, want 1", len(page))
	}
	if _, ok, _ := p.Next(context.Background()); ok {
		t.Error("pager should be exhausted after single page")
	}
}

func TestRetriesRateLimitExceeded(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `403 Forbidden (Rate Limit Exceeded)`)
			return
		}
		fmt.Fprint(w, `[{"id":42,"name":"Calculus I"}]`)
	}))
	c := testClient(t, srv)

	courses, err := c.CoursesPager(1, 0).All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(courses) != 1 || courses[0].Name != "Calculus I" {
		t.Errorf("unexpected courses: %+v", courses)
	}
	if m := c.Metrics(); m.TotalRetries != 2 {
		t.Errorf("TotalRetries = %d, want 2", m.TotalRetries)
	}
}

func TestNonRetryableErrorFailsFast(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors":[{"message":"The specified resource does not exist."}]}`)
	}))
	c := testClient(t, srv)

	_, err := c.GetCourse(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (404 must not retry)", attempts)
	}
	if IsRateLimited(err) {
		t.Error("404 should not classify as rate limited")
	}
}

func TestQuotaHeadersRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Remaining", "512.5")
		w.Header().Set("X-Request-Cost", "1.25")
		fmt.Fprint(w, `[]`)
	}))
	c := testClient(t, srv)

	if _, err := c.SubmissionsPager(3).All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}
	m := c.Metrics()
	if m.QuotaRemaining != 512.5 {
		t.Errorf("QuotaRemaining = %v, want 512.5", m.QuotaRemaining)
	}
	if m.CostConsumed != 1.25 {
		t.Errorf("CostConsumed = %v, want 1.25", m.CostConsumed)
	}
}

func TestListTermsUnwrapsObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"enrollment_terms":[{"id":5,"name":"Fall 2025"},{"id":6,"name":"Spring 2026"}]}`)
	}))
	c := testClient(t, srv)

	terms, err := c.ListTerms(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListTerms: %v", err)
	}
	want := []Term{{ID: 5, Name: "Fall 2025"}, {ID: 6, Name: "Spring 2026"}}
	if diff := cmp.Diff(want, terms); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
}

func TestContextCancelStopsPager(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	c := testClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := c.EnrollmentsPager(1).Next(ctx); err == nil {
		t.Error("expected context error")
	}
}
