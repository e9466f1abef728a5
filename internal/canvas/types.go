package canvas

import "time"

// Resource types for the subset of the Canvas REST API this tool reads.
// Field sets are trimmed to what extraction and scoring consume; Canvas
// returns far more and the decoder ignores the rest.

// Term is an enrollment term (GET /api/v1/accounts/:id/terms).
type Term struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

// Course is a Canvas course (GET /api/v1/accounts/:id/courses).
type Course struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	CourseCode       string `json:"course_code"`
	WorkflowState    string `json:"workflow_state"`
	EnrollmentTermID int64  `json:"enrollment_term_id"`
	AccountID        int64  `json:"account_id"`
	TotalStudents    int    `json:"total_students"`
	SyllabusBody     string `json:"syllabus_body"`
}

// Grades is the grade block nested in an enrollment.
type Grades struct {
	CurrentScore *float64 `json:"current_score"`
	FinalScore   *float64 `json:"final_score"`
	CurrentGrade string   `json:"current_grade"`
	FinalGrade   string   `json:"final_grade"`
}

// Enrollment is a course enrollment (GET /api/v1/courses/:id/enrollments).
type Enrollment struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	UserID   int64  `json:"user_id"`
	Type     string `json:"type"`
	State    string `json:"enrollment_state"`
	Grades   Grades `json:"grades"`
	User     User   `json:"user"`
}

// User is the user block nested in enrollments.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SISUserID string `json:"sis_user_id"`
}

// TardinessBreakdown is the per-student submission punctuality summary.
type TardinessBreakdown struct {
	Missing  float64 `json:"missing"`
	Late     float64 `json:"late"`
	OnTime   float64 `json:"on_time"`
	Floating float64 `json:"floating"`
	Total    float64 `json:"total"`
}

// StudentSummary is a per-student engagement summary
// (GET /api/v1/courses/:id/analytics/student_summaries).
type StudentSummary struct {
	ID                 int64              `json:"id"` // user id
	PageViews          float64            `json:"page_views"`
	MaxPageViews       float64            `json:"max_page_views"`
	Participations     float64            `json:"participations"`
	MaxParticipations  float64            `json:"max_participations"`
	TardinessBreakdown TardinessBreakdown `json:"tardiness_breakdown"`
}

// Submission is an assignment submission
// (GET /api/v1/courses/:id/students/submissions).
type Submission struct {
	ID            int64      `json:"id"`
	AssignmentID  int64      `json:"assignment_id"`
	UserID        int64      `json:"user_id"`
	Score         *float64   `json:"score"`
	Late          bool       `json:"late"`
	Missing       bool       `json:"missing"`
	WorkflowState string     `json:"workflow_state"`
	SubmittedAt   *time.Time `json:"submitted_at"`
}
