// Package scoring computes the heuristic prediction-potential scores.
//
// The Course Prediction Score (CPS) estimates how well a course's data
// can support a pass/fail model: enough students, balanced outcomes,
// engagement coverage, grade spread, and complete grading. The Career
// Potential Score aggregates course scores per program. Both are
// hand-tuned weighted sums; the weights live in config so they can be
// re-tuned against a validation term without a rebuild.
package scoring

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/stat"

	"canvaslytics/internal/config"
	"canvaslytics/internal/store"
)

// enrollmentSaturation is the student count at which the enrollment
// component maxes out under log scaling.
const enrollmentSaturation = 200

// Scorer computes course and career scores with configured weights.
type Scorer struct {
	cfg           config.ScoringConfig
	passThreshold float64
}

// New returns a Scorer. passThreshold is the score cutoff separating
// pass from fail when no letter grade is present.
func New(cfg config.ScoringConfig, passThreshold float64) *Scorer {
	return &Scorer{cfg: cfg, passThreshold: passThreshold}
}

// CourseInput is everything known about one course at scoring time.
type CourseInput struct {
	Course      store.CourseRow
	Enrollments []store.EnrollmentRow
	Summaries   []store.SummaryRow
}

// Career derives the program identifier from a course code: the leading
// letter run, uppercased ("MATH 101" -> "MATH", "cs-201" -> "CS").
func Career(courseCode string) string {
	code := strings.TrimSpace(courseCode)
	end := 0
	for _, r := range code {
		if !unicode.IsLetter(r) {
			break
		}
		end += len(string(r))
	}
	if end == 0 {
		return "UNCAT"
	}
	return strings.ToUpper(code[:end])
}

// Tier classifies a course by student count.
func (s *Scorer) Tier(students int) string {
	switch {
	case students >= s.cfg.TierLarge:
		return "large"
	case students >= s.cfg.TierMedium:
		return "medium"
	case students >= s.cfg.TierSmall:
		return "small"
	default:
		return "tiny"
	}
}

// ScoreCourse computes the CPS for one course. A course with no student
// enrollments scores zero across the board.
func (s *Scorer) ScoreCourse(in CourseInput) store.CourseScore {
	score := store.CourseScore{
		CourseID: in.Course.ID,
		Career:   Career(in.Course.CourseCode),
		Tier:     s.Tier(len(in.Enrollments)),
	}
	n := len(in.Enrollments)
	if n == 0 {
		return score
	}

	score.Coverage = coverageSignal(in.Enrollments, in.Summaries)
	score.EnrollmentComponent = s.cfg.WeightEnrollment * enrollmentSignal(n)
	score.BalanceComponent = s.cfg.WeightBalance * s.balanceSignal(in.Enrollments)
	score.CoverageComponent = s.cfg.WeightCoverage * score.Coverage
	score.VarianceComponent = s.cfg.WeightVariance * varianceSignal(in.Enrollments)
	score.CompletenessComponent = s.cfg.WeightCompleteness * completenessSignal(in.Enrollments)

	score.CPS = clamp(score.EnrollmentComponent+score.BalanceComponent+
		score.CoverageComponent+score.VarianceComponent+score.CompletenessComponent, 0, 100)
	return score
}

// ScoreAll scores every course input and returns scores sorted by CPS
// descending.
func (s *Scorer) ScoreAll(inputs []CourseInput) []store.CourseScore {
	scores := make([]store.CourseScore, 0, len(inputs))
	for _, in := range inputs {
		scores = append(scores, s.ScoreCourse(in))
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].CPS > scores[j].CPS })
	return scores
}

// enrollmentSignal rewards student volume with diminishing returns.
func enrollmentSignal(n int) float64 {
	return clamp(math.Log1p(float64(n))/math.Log1p(enrollmentSaturation), 0, 1)
}

// balanceSignal is the binary entropy of the pass rate: 1.0 for a 50/50
// split, 0 for all-pass or all-fail. A course where everyone passes has
// nothing for a classifier to learn.
func (s *Scorer) balanceSignal(enrollments []store.EnrollmentRow) float64 {
	passed, labeled := 0, 0
	for _, e := range enrollments {
		outcome, ok := s.Outcome(e)
		if !ok {
			continue
		}
		labeled++
		if outcome {
			passed++
		}
	}
	if labeled == 0 {
		return 0
	}
	p := float64(passed) / float64(labeled)
	if p == 0 || p == 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// Outcome resolves a pass/fail label for an enrollment. An explicit
// letter grade wins; otherwise the final (or current) score is compared
// to the pass threshold. ok is false when there is no signal at all.
func (s *Scorer) Outcome(e store.EnrollmentRow) (passed, ok bool) {
	if g := strings.TrimSpace(e.FinalGrade); g != "" {
		return !strings.HasPrefix(strings.ToUpper(g), "F"), true
	}
	score := e.FinalScore
	if score == nil {
		score = e.CurrentScore
	}
	if score == nil {
		return false, false
	}
	return *score >= s.passThreshold, true
}

// coverageSignal is the fraction of students with engagement summaries.
func coverageSignal(enrollments []store.EnrollmentRow, summaries []store.SummaryRow) float64 {
	if len(enrollments) == 0 {
		return 0
	}
	return clamp(float64(len(summaries))/float64(len(enrollments)), 0, 1)
}

// varianceSignal rewards grade spread. A standard deviation of 25 score
// points or more saturates the signal; a single graded student counts
// as zero spread.
func varianceSignal(enrollments []store.EnrollmentRow) float64 {
	var scores []float64
	for _, e := range enrollments {
		if e.FinalScore != nil {
			scores = append(scores, *e.FinalScore)
		} else if e.CurrentScore != nil {
			scores = append(scores, *e.CurrentScore)
		}
	}
	if len(scores) < 2 {
		return 0
	}
	sd := math.Sqrt(stat.Variance(scores, nil))
	return clamp(sd/25.0, 0, 1)
}

// completenessSignal is the fraction of enrollments carrying any grade.
func completenessSignal(enrollments []store.EnrollmentRow) float64 {
	graded := 0
	for _, e := range enrollments {
		if e.FinalScore != nil || e.CurrentScore != nil || strings.TrimSpace(e.FinalGrade) != "" {
			graded++
		}
	}
	return float64(graded) / float64(len(enrollments))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
