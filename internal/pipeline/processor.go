// Package pipeline runs extraction and forecasting for one line at a time.
package pipeline

import (
	"fmt"

	"github.com/Gummygamer/smartraspberrytermometer/internal/forecast"
	"github.com/Gummygamer/smartraspberrytermometer/internal/history"
)

type Config struct {
	Baseline float64
	// Forecast enables the linear fit and next-value prediction.
	Forecast bool
}

// Result is everything derived from one line. Nothing in it outlives the line.
type Result struct {
	Line         string
	Matched      bool
	Differences  []int
	Temperatures []float64
	Prediction   *forecast.Prediction
}

// Processor runs extraction and forecasting for a single line.
type Processor struct {
	cfg Config
}

func NewProcessor(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// Process never returns partial state across calls. On history.ErrParse the
// result is marked matched without temperatures; on
// forecast.ErrInsufficientData the temperatures are set and Prediction is nil.
func (p *Processor) Process(line string) (Result, error) {
	res := Result{Line: line}

	diffs, ok, err := history.Extract(line)
	res.Matched = ok
	if err != nil {
		return res, err
	}
	if !ok {
		return res, nil
	}

	res.Differences = diffs
	res.Temperatures = forecast.AbsoluteSeries(diffs, p.cfg.Baseline)

	if !p.cfg.Forecast {
		return res, nil
	}

	pred, err := forecast.PredictNext(res.Temperatures)
	if err != nil {
		return res, fmt.Errorf("predict from %d readings: %w", len(res.Temperatures), err)
	}
	res.Prediction = &pred
	return res, nil
}
