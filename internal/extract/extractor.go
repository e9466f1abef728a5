// Package extract orchestrates the Canvas API client and the snapshot
// store: one run pulls courses for an account/term, then fans out per
// course to pull enrollments, engagement summaries, and optionally
// submissions, persisting pages as they arrive.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"canvaslytics/internal/canvas"
	"canvaslytics/internal/store"
)

// Options selects what one extraction run covers.
type Options struct {
	AccountID          int64
	TermID             int64   // 0 means all terms
	CourseIDs          []int64 // explicit course list; skips the account listing
	Concurrency        int
	IncludeSubmissions bool
}

// Extractor runs extractions.
type Extractor struct {
	client *canvas.Client
	db     *store.Store
	log    *zap.Logger
}

// New builds an Extractor.
func New(client *canvas.Client, db *store.Store, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{client: client, db: db, log: log}
}

// Run executes one extraction run. The returned run row reflects final
// status and counters even when the run failed partway.
func (e *Extractor) Run(ctx context.Context, opts Options) (*store.Run, error) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	run := &store.Run{
		ID:        uuid.NewString(),
		AccountID: opts.AccountID,
		TermID:    opts.TermID,
	}
	if err := e.db.CreateRun(run); err != nil {
		return nil, err
	}
	e.log.Info("extraction run started",
		zap.String("run_id", run.ID),
		zap.Int64("account_id", opts.AccountID),
		zap.Int64("term_id", opts.TermID))

	var pages, students int64
	courses, err := e.fetchCourses(ctx, run, opts, &pages)
	if err == nil {
		err = e.fanOut(ctx, run.ID, opts, courses, &pages, &students)
	}

	run.Courses = int64(len(courses))
	run.Students = atomic.LoadInt64(&students)
	run.Pages = atomic.LoadInt64(&pages)
	m := e.client.Metrics()
	run.APICost = m.CostConsumed
	run.QuotaRemaining = m.QuotaRemaining
	run.APICalls = m.TotalCalls
	run.APIRetries = m.TotalRetries
	run.Status = "completed"
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	if ferr := e.db.FinishRun(run); ferr != nil {
		e.log.Warn("failed to finalize run row", zap.Error(ferr))
	}

	if err != nil {
		e.log.Error("extraction run failed", zap.String("run_id", run.ID), zap.Error(err))
		return run, err
	}
	e.log.Info("extraction run completed",
		zap.String("run_id", run.ID),
		zap.Int64("courses", run.Courses),
		zap.Int64("students", run.Students),
		zap.Int64("pages", run.Pages),
		zap.Float64("api_cost", run.APICost))
	return run, nil
}

// fetchCourses resolves the course list, persisting as it goes.
func (e *Extractor) fetchCourses(ctx context.Context, run *store.Run, opts Options, pages *int64) ([]canvas.Course, error) {
	if len(opts.CourseIDs) > 0 {
		var courses []canvas.Course
		for _, id := range opts.CourseIDs {
			course, err := e.client.GetCourse(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("fetching course %d: %w", id, err)
			}
			courses = append(courses, *course)
			atomic.AddInt64(pages, 1)
		}
		if err := e.db.UpsertCourses(run.ID, courses); err != nil {
			return nil, err
		}
		return courses, nil
	}

	var courses []canvas.Course
	pager := e.client.CoursesPager(opts.AccountID, opts.TermID)
	for {
		page, ok, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing courses for account %d: %w", opts.AccountID, err)
		}
		if !ok {
			break
		}
		atomic.AddInt64(pages, 1)
		if err := e.db.UpsertCourses(run.ID, page); err != nil {
			return nil, err
		}
		courses = append(courses, page...)
	}
	e.log.Debug("course list resolved", zap.Int("courses", len(courses)))
	return courses, nil
}

// fanOut pulls per-course data with bounded parallelism. The client's
// own slot semaphore additionally bounds in-flight HTTP calls, so the
// group limit here mostly controls how many courses are mid-extraction.
func (e *Extractor) fanOut(ctx context.Context, runID string, opts Options, courses []canvas.Course, pages, students *int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, course := range courses {
		g.Go(func() error {
			if err := e.extractCourse(ctx, runID, opts, course, pages, students); err != nil {
				return fmt.Errorf("course %d (%s): %w", course.ID, course.CourseCode, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Extractor) extractCourse(ctx context.Context, runID string, opts Options, course canvas.Course, pages, students *int64) error {
	// The account listing omits syllabus bodies; backfill from the
	// course detail endpoint so reports can excerpt them.
	if course.SyllabusBody == "" {
		detail, err := e.client.GetCourse(ctx, course.ID)
		if err != nil {
			return fmt.Errorf("course detail: %w", err)
		}
		atomic.AddInt64(pages, 1)
		if err := e.db.UpsertCourses(runID, []canvas.Course{*detail}); err != nil {
			return err
		}
	}

	enrPager := e.client.EnrollmentsPager(course.ID)
	for {
		page, ok, err := enrPager.Next(ctx)
		if err != nil {
			return fmt.Errorf("enrollments: %w", err)
		}
		if !ok {
			break
		}
		atomic.AddInt64(pages, 1)
		atomic.AddInt64(students, int64(len(page)))
		if err := e.db.UpsertEnrollments(course.ID, page); err != nil {
			return err
		}
	}

	sumPager := e.client.StudentSummariesPager(course.ID)
	for {
		page, ok, err := sumPager.Next(ctx)
		if err != nil {
			// Courses without the analytics feature 404 here; that is
			// missing coverage, not a failed run.
			if apiNotFound(err) {
				e.log.Debug("no analytics for course", zap.Int64("course_id", course.ID))
				break
			}
			return fmt.Errorf("student summaries: %w", err)
		}
		if !ok {
			break
		}
		atomic.AddInt64(pages, 1)
		if err := e.db.UpsertStudentSummaries(course.ID, page); err != nil {
			return err
		}
	}

	if opts.IncludeSubmissions {
		subPager := e.client.SubmissionsPager(course.ID)
		for {
			page, ok, err := subPager.Next(ctx)
			if err != nil {
				return fmt.Errorf("submissions: %w", err)
			}
			if !ok {
				break
			}
			atomic.AddInt64(pages, 1)
			if err := e.db.UpsertSubmissions(course.ID, page); err != nil {
				return err
			}
		}
	}

	e.log.Debug("course extracted", zap.Int64("course_id", course.ID), zap.String("code", course.CourseCode))
	return nil
}

func apiNotFound(err error) bool {
	var apiErr *canvas.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
