// Package forecast turns difference readings into absolute temperatures and
// predicts the next one with an ordinary least-squares line.
package forecast

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when fewer than two temperatures remain,
// so the slope of the fit is undefined.
var ErrInsufficientData = errors.New("insufficient data for linear fit")

// LinearModel is an ordinary least-squares line over sample indices.
type LinearModel struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at sample index x.
func (m LinearModel) At(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// Prediction is the one-step-ahead value and the model that produced it.
type Prediction struct {
	Value float64
	Model LinearModel
	// Index is the sample index the value was evaluated at.
	Index int
}

// AbsoluteSeries converts difference readings to absolute temperatures.
// Negative differences are treated as invalid readings and dropped.
func AbsoluteSeries(diffs []int, baseline float64) []float64 {
	out := make([]float64, 0, len(diffs))
	for _, d := range diffs {
		if d < 0 {
			continue
		}
		out = append(out, baseline+float64(d))
	}
	return out
}

// Fit returns the least-squares line through (i, series[i]).
func Fit(series []float64) (LinearModel, error) {
	if len(series) < 2 {
		return LinearModel{}, ErrInsufficientData
	}
	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, series, nil, false)
	return LinearModel{Slope: slope, Intercept: intercept}, nil
}

// PredictNext fits the series and evaluates the line one step past its end.
func PredictNext(series []float64) (Prediction, error) {
	model, err := Fit(series)
	if err != nil {
		return Prediction{}, err
	}
	n := len(series)
	return Prediction{
		Value: model.At(float64(n)),
		Model: model,
		Index: n,
	}, nil
}
