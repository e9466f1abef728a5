// Package dataset turns stored snapshot rows into matrices for the
// baseline models.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"canvaslytics/internal/config"
	"canvaslytics/internal/scoring"
	"canvaslytics/internal/store"
)

// FeatureNames lists the model features in column order.
var FeatureNames = []string{
	"page_views",
	"participations",
	"tardy_missing",
	"tardy_late",
	"tardy_on_time",
	"late_submissions",
	"missing_submissions",
	"current_score",
}

// Dataset is a labeled feature matrix. Y holds 1 for pass, 0 for fail.
type Dataset struct {
	X *mat.Dense
	Y []float64
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	r, _ := d.X.Dims()
	return r
}

// Build assembles the dataset from feature rows. The label comes from
// the explicit final letter grade when present, otherwise the final
// score against the pass threshold. Rows with neither are dropped: the
// current score stays a feature and must not double as the label.
func Build(rows []store.FeatureRow, cfg config.TrainConfig) (*Dataset, error) {
	scorer := scoring.New(config.ScoringConfig{}, cfg.PassThreshold)

	var data []float64
	var y []float64
	for _, r := range rows {
		labelSource := store.EnrollmentRow{FinalGrade: r.FinalGrade, FinalScore: r.FinalScore}
		passed, ok := scorer.Outcome(labelSource)
		if !ok {
			continue
		}

		current := 0.0
		if r.CurrentScore != nil {
			current = *r.CurrentScore
		}
		data = append(data,
			r.PageViews,
			r.Participations,
			r.TardyMissing,
			r.TardyLate,
			r.TardyOnTime,
			r.LateSubs,
			r.MissingSubs,
			current,
		)
		if passed {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	if len(y) == 0 {
		return nil, fmt.Errorf("no labeled samples (need final grades or final scores)")
	}
	return &Dataset{
		X: mat.NewDense(len(y), len(FeatureNames), data),
		Y: y,
	}, nil
}

// Subset returns the dataset restricted to the given row indices.
func (d *Dataset) Subset(idx []int) *Dataset {
	_, cols := d.X.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	y := make([]float64, len(idx))
	for i, j := range idx {
		out.SetRow(i, mat.Row(nil, j, d.X))
		y[i] = d.Y[j]
	}
	return &Dataset{X: out, Y: y}
}

// ClassBalance returns the fraction of positive (pass) labels.
func (d *Dataset) ClassBalance() float64 {
	if len(d.Y) == 0 {
		return 0
	}
	pos := 0.0
	for _, v := range d.Y {
		pos += v
	}
	return pos / float64(len(d.Y))
}
