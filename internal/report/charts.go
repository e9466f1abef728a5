package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"canvaslytics/internal/model"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// WriteFiles writes report.md and its charts into dir, creating it if
// needed. Charts whose inputs are empty are skipped.
func WriteFiles(dir string, d *Data) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.md"), []byte(Markdown(d)), 0644); err != nil {
		return fmt.Errorf("writing report.md: %w", err)
	}

	if len(d.Courses) > 0 {
		cps := make([]float64, len(d.Courses))
		for i, c := range d.Courses {
			cps[i] = c.CPS
		}
		if err := cpsHistogram(cps, filepath.Join(dir, "cps_histogram.png")); err != nil {
			return err
		}
	}
	if len(d.ROCCurves) > 0 {
		if err := rocChart(d.ROCCurves, filepath.Join(dir, "roc.png")); err != nil {
			return err
		}
	}
	if len(d.Importances) > 0 {
		if err := importanceChart(d.Importances, filepath.Join(dir, "feature_importance.png")); err != nil {
			return err
		}
	}
	return nil
}

// cpsHistogram plots the distribution of course prediction scores.
func cpsHistogram(cps []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Course Prediction Score Distribution"
	p.X.Label.Text = "CPS"
	p.Y.Label.Text = "Courses"

	bins := 10
	if len(cps) < bins {
		bins = len(cps)
	}
	h, err := plotter.NewHist(plotter.Values(cps), bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// rocChart plots one ROC curve per classifier plus the chance diagonal.
func rocChart(curves map[string][]model.ROCPoint, path string) error {
	p := plot.New()
	p.Title.Text = "ROC Curves"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return err
	}
	diag.LineStyle.Color = plotutil.Color(6)
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		pts := make(plotter.XYs, len(curves[name]))
		for j, pt := range curves[name] {
			pts[j] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("building ROC line for %s: %w", name, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// importanceChart plots forest feature importances as bars.
func importanceChart(imps []Importance, path string) error {
	p := plot.New()
	p.Title.Text = "Feature Importances"
	p.Y.Label.Text = "Importance"

	values := make(plotter.Values, len(imps))
	names := make([]string, len(imps))
	for i, imp := range imps {
		values[i] = imp.Weight
		names[i] = imp.Feature
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return fmt.Errorf("building bar chart: %w", err)
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = 0

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
