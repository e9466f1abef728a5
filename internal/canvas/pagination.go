package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Canvas paginates list endpoints with RFC 5988 Link headers. Pager walks
// the rel="next" chain one page at a time so large courses can be
// persisted as pages arrive instead of buffering a whole term in memory.

// Pager iterates a paginated list endpoint yielding decoded pages of T.
type Pager[T any] struct {
	c    *Client
	next string
	done bool
}

// NewPager starts a pager at the given API path (without /api/v1 prefix).
func NewPager[T any](c *Client, path string, query url.Values) *Pager[T] {
	return &Pager[T]{c: c, next: c.endpoint(path, query)}
}

// Next fetches the next page. ok is false when the chain is exhausted.
func (p *Pager[T]) Next(ctx context.Context) (page []T, ok bool, err error) {
	if p.done || p.next == "" {
		return nil, false, nil
	}
	header, err := p.c.getJSON(ctx, p.next, &page)
	if err != nil {
		return nil, false, err
	}
	p.next = nextLink(header)
	if p.next == "" {
		p.done = true
	}
	return page, true, nil
}

// All drains the pager into one slice.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for {
		page, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, page...)
	}
}

// nextLink extracts the rel="next" URL from a Link header, or "".
func nextLink(h http.Header) string {
	for _, link := range h.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			segs := strings.Split(strings.TrimSpace(part), ";")
			if len(segs) < 2 {
				continue
			}
			target := strings.Trim(strings.TrimSpace(segs[0]), "<>")
			for _, attr := range segs[1:] {
				if strings.TrimSpace(attr) == `rel="next"` {
					return target
				}
			}
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// List endpoints
// -----------------------------------------------------------------------------

// ListTerms returns the enrollment terms of an account. Unlike other list
// endpoints, Canvas wraps this response in an object.
func (c *Client) ListTerms(ctx context.Context, accountID int64) ([]Term, error) {
	var all []Term
	next := c.endpoint(fmt.Sprintf("/accounts/%d/terms", accountID), nil)
	for next != "" {
		var wrapper struct {
			EnrollmentTerms []Term `json:"enrollment_terms"`
		}
		header, err := c.getJSON(ctx, next, &wrapper)
		if err != nil {
			return nil, err
		}
		all = append(all, wrapper.EnrollmentTerms...)
		next = nextLink(header)
	}
	return all, nil
}

// CoursesPager pages through an account's courses, optionally filtered to
// one enrollment term. total_students is included for tiering.
func (c *Client) CoursesPager(accountID, termID int64) *Pager[Course] {
	q := url.Values{}
	q.Add("include[]", "total_students")
	q.Set("with_enrollments", "true")
	if termID > 0 {
		q.Set("enrollment_term_id", strconv.FormatInt(termID, 10))
	}
	return NewPager[Course](c, fmt.Sprintf("/accounts/%d/courses", accountID), q)
}

// GetCourse fetches a single course with syllabus and student count.
func (c *Client) GetCourse(ctx context.Context, courseID int64) (*Course, error) {
	q := url.Values{}
	q.Add("include[]", "syllabus_body")
	q.Add("include[]", "total_students")
	var course Course
	_, err := c.getJSON(ctx, c.endpoint(fmt.Sprintf("/courses/%d", courseID), q), &course)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// EnrollmentsPager pages through a course's student enrollments, active
// and completed, with the grades block populated.
func (c *Client) EnrollmentsPager(courseID int64) *Pager[Enrollment] {
	q := url.Values{}
	q.Add("type[]", "StudentEnrollment")
	q.Add("state[]", "active")
	q.Add("state[]", "completed")
	return NewPager[Enrollment](c, fmt.Sprintf("/courses/%d/enrollments", courseID), q)
}

// StudentSummariesPager pages through the course analytics student
// summaries (page views, participations, tardiness).
func (c *Client) StudentSummariesPager(courseID int64) *Pager[StudentSummary] {
	return NewPager[StudentSummary](c, fmt.Sprintf("/courses/%d/analytics/student_summaries", courseID), nil)
}

// SubmissionsPager pages through all student submissions of a course.
func (c *Client) SubmissionsPager(courseID int64) *Pager[Submission] {
	q := url.Values{}
	q.Add("student_ids[]", "all")
	return NewPager[Submission](c, fmt.Sprintf("/courses/%d/students/submissions", courseID), q)
}
