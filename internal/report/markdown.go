// Package report renders scoring and training results as a markdown
// report with companion PNG charts, plus styled terminal output.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"canvaslytics/internal/model"
	"canvaslytics/internal/store"
)

// CourseLine is one course score joined with its catalog identity.
type CourseLine struct {
	store.CourseScore
	Name    string
	Code    string
	Excerpt string
}

// ModelSummary is one classifier's cross-validation summary.
type ModelSummary struct {
	Name                      string
	AccuracyMean, AccuracyStd float64
	F1Mean, F1Std             float64
	AUCMean, AUCStd           float64
	MSE                       float64
	R2                        float64
	Folds                     int
}

// Importance is one feature's share of forest impurity reduction.
type Importance struct {
	Feature string
	Weight  float64
}

// Data is everything a report needs.
type Data struct {
	Run         *store.Run
	GeneratedAt time.Time
	TopN        int

	Courses     []CourseLine
	Careers     []store.CareerScore
	Models      []ModelSummary
	Importances []Importance
	ROCCurves   map[string][]model.ROCPoint
}

// SummarizeEvals collapses per-fold evaluation rows into one summary per
// model. Fold 0 rows (whole-dataset aggregates) are skipped.
func SummarizeEvals(evals []store.ModelEval) []ModelSummary {
	byModel := make(map[string][]store.ModelEval)
	for _, e := range evals {
		if e.Fold == 0 {
			continue
		}
		byModel[e.Model] = append(byModel[e.Model], e)
	}

	var out []ModelSummary
	for name, rows := range byModel {
		var accs, f1s, aucs, mses, r2s []float64
		for _, r := range rows {
			accs = append(accs, r.Accuracy)
			f1s = append(f1s, r.F1)
			aucs = append(aucs, r.AUC)
			mses = append(mses, r.MSE)
			r2s = append(r2s, r.R2)
		}
		s := ModelSummary{Name: name, Folds: len(rows)}
		s.AccuracyMean, s.AccuracyStd = model.MeanStd(accs)
		s.F1Mean, s.F1Std = model.MeanStd(f1s)
		s.AUCMean, s.AUCStd = model.MeanStd(aucs)
		s.MSE, _ = model.MeanStd(mses)
		s.R2, _ = model.MeanStd(r2s)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Markdown renders the full report document.
func Markdown(d *Data) string {
	var b strings.Builder

	b.WriteString("# Canvaslytics Report\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", d.GeneratedAt.Format(time.RFC3339))
	if d.Run != nil {
		fmt.Fprintf(&b, "Run `%s` (%s): %d courses, %d students, %d pages, %.1f API cost.\n\n",
			d.Run.ID, d.Run.Status, d.Run.Courses, d.Run.Students, d.Run.Pages, d.Run.APICost)
	}

	writeCourseTable(&b, d)
	writeCareerTable(&b, d.Careers)
	writeModelTable(&b, d.Models)
	writeImportances(&b, d.Importances)
	writeExcerpts(&b, d)

	return b.String()
}

func writeCourseTable(b *strings.Builder, d *Data) {
	b.WriteString("## Course Prediction Scores\n\n")
	if len(d.Courses) == 0 {
		b.WriteString("No course scores. Run `canvaslytics score` first.\n\n")
		return
	}
	n := len(d.Courses)
	if d.TopN > 0 && d.TopN < n {
		n = d.TopN
	}
	b.WriteString("| # | Course | Career | Tier | CPS | Enroll | Balance | Coverage | Variance | Complete |\n")
	b.WriteString("|--:|--------|--------|------|----:|-------:|--------:|---------:|---------:|---------:|\n")
	for i, c := range d.Courses[:n] {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f |\n",
			i+1, courseLabel(c), c.Career, c.Tier, c.CPS,
			c.EnrollmentComponent, c.BalanceComponent, c.CoverageComponent,
			c.VarianceComponent, c.CompletenessComponent)
	}
	b.WriteString("\n![CPS distribution](cps_histogram.png)\n\n")
}

func writeCareerTable(b *strings.Builder, careers []store.CareerScore) {
	b.WriteString("## Career Ranking\n\n")
	if len(careers) == 0 {
		b.WriteString("No career scores. Run `canvaslytics careers` first.\n\n")
		return
	}
	b.WriteString("| # | Career | Score | Mean CPS | Coverage | Courses | S/M/L |\n")
	b.WriteString("|--:|--------|------:|---------:|---------:|--------:|-------|\n")
	for i, c := range careers {
		fmt.Fprintf(b, "| %d | %s | %.1f | %.1f | %.0f%% | %d | %d/%d/%d |\n",
			i+1, c.Career, c.Score, c.MeanCPS, c.Coverage*100, c.Courses,
			c.TierSmall, c.TierMedium, c.TierLarge)
	}
	b.WriteString("\n")
}

func writeModelTable(b *strings.Builder, models []ModelSummary) {
	b.WriteString("## Model Comparison\n\n")
	if len(models) == 0 {
		b.WriteString("No model evaluations. Run `canvaslytics train` first.\n\n")
		return
	}
	fmt.Fprintf(b, "Cross-validated over %d folds; pass is the positive class.\n\n", models[0].Folds)
	b.WriteString("| Model | Accuracy | F1 | AUC | MSE | R² |\n")
	b.WriteString("|-------|---------:|---:|----:|----:|---:|\n")
	for _, m := range models {
		fmt.Fprintf(b, "| %s | %.3f ± %.3f | %.3f ± %.3f | %.3f ± %.3f | %.3f | %.3f |\n",
			m.Name, m.AccuracyMean, m.AccuracyStd, m.F1Mean, m.F1Std,
			m.AUCMean, m.AUCStd, m.MSE, m.R2)
	}
	b.WriteString("\n![ROC curves](roc.png)\n\n")
}

func writeImportances(b *strings.Builder, imps []Importance) {
	if len(imps) == 0 {
		return
	}
	b.WriteString("## Feature Importances\n\n")
	b.WriteString("Impurity-based importances from the random forest.\n\n")
	for _, imp := range imps {
		fmt.Fprintf(b, "- `%s`: %.3f\n", imp.Feature, imp.Weight)
	}
	b.WriteString("\n![Feature importances](feature_importance.png)\n\n")
}

func writeExcerpts(b *strings.Builder, d *Data) {
	n := len(d.Courses)
	if d.TopN > 0 && d.TopN < n {
		n = d.TopN
	}
	wrote := false
	for _, c := range d.Courses[:n] {
		if c.Excerpt == "" {
			continue
		}
		if !wrote {
			b.WriteString("## Syllabus Excerpts\n\n")
			wrote = true
		}
		fmt.Fprintf(b, "### %s\n\n> %s\n\n", courseLabel(c), c.Excerpt)
	}
}

func courseLabel(c CourseLine) string {
	switch {
	case c.Code != "" && c.Name != "":
		return fmt.Sprintf("%s: %s", c.Code, c.Name)
	case c.Name != "":
		return c.Name
	default:
		return fmt.Sprintf("course %d", c.CourseID)
	}
}
