package scoring

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"canvaslytics/internal/store"
)

// ScoreCareers aggregates course scores into one Career Potential Score
// per program. Courses that scored zero (no students) are excluded: they
// carry no evidence either way. Returned careers are sorted best first.
func (s *Scorer) ScoreCareers(courseScores []store.CourseScore) []store.CareerScore {
	groups := make(map[string][]store.CourseScore)
	for _, cs := range courseScores {
		if cs.CPS == 0 {
			continue
		}
		groups[cs.Career] = append(groups[cs.Career], cs)
	}

	out := make([]store.CareerScore, 0, len(groups))
	for career, scores := range groups {
		cs := store.CareerScore{Career: career, Courses: int64(len(scores))}

		var cpsValues, coverages []float64
		for _, sc := range scores {
			cpsValues = append(cpsValues, sc.CPS)
			coverages = append(coverages, sc.Coverage)
			switch sc.Tier {
			case "large":
				cs.TierLarge++
			case "medium":
				cs.TierMedium++
			case "small":
				cs.TierSmall++
			default:
				cs.TierTiny++
			}
		}

		cs.MeanCPS = stat.Mean(cpsValues, nil)
		cs.Coverage = stat.Mean(coverages, nil)

		// Tier signal: large courses carry full weight, medium half,
		// small a quarter; tiny courses add nothing.
		tierSignal := (0.25*float64(cs.TierSmall) + 0.5*float64(cs.TierMedium) +
			float64(cs.TierLarge)) / float64(cs.Courses)

		// Cross-course CPS spread penalizes programs whose suitability
		// rests on one outlier course.
		spreadPenalty := 0.0
		if len(cpsValues) > 1 {
			sd := stat.StdDev(cpsValues, nil)
			spreadPenalty = clamp(sd/50.0, 0, 1)
		}

		cs.Score = clamp(
			s.cfg.CareerWeightTiers*clamp(tierSignal, 0, 1)+
				s.cfg.CareerWeightMeanCPS*(cs.MeanCPS/100.0)+
				s.cfg.CareerWeightCoverage*cs.Coverage+
				s.cfg.CareerWeightVariance*(1.0-spreadPenalty),
			0, 100)
		out = append(out, cs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Career < out[j].Career
	})
	return out
}
