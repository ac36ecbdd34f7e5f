package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Gummygamer/smartraspberrytermometer/internal/device"
	"github.com/Gummygamer/smartraspberrytermometer/internal/forecast"
	"github.com/Gummygamer/smartraspberrytermometer/internal/history"
	"github.com/Gummygamer/smartraspberrytermometer/internal/pipeline"
	"github.com/Gummygamer/smartraspberrytermometer/internal/report"
)

// Loop reads lines one at a time and presents whatever each yields.
type Loop struct {
	Source    device.LineSource
	Processor *pipeline.Processor
	Console   *report.Console
	Sinks     []Sink
	// StopAfterFirstMatch ends the loop once a history line has been fully
	// processed.
	StopAfterFirstMatch bool
	Logger              *slog.Logger
}

// Run returns nil on interrupt or after the first match when configured.
// Per-line failures are logged and skipped; only a broken source ends the
// loop with an error.
func (l *Loop) Run(ctx context.Context) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for {
		line, err := l.Source.ReadLine(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			l.Console.Stopped()
			logger.Info("read loop stopped", "reason", err)
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			logger.Info("read loop deadline reached", "reason", err)
			return nil
		case errors.Is(err, device.ErrDecode), errors.Is(err, device.ErrLineTooLong):
			logger.Warn("skipping unreadable line", "error", err)
			continue
		default:
			return fmt.Errorf("read line: %w", err)
		}

		l.Console.Echo(line)

		done := l.handle(ctx, logger, line)
		if done && l.StopAfterFirstMatch {
			logger.Info("temperature history processed, stopping")
			return nil
		}
	}
}

// handle reports whether the line counted as a successful match.
func (l *Loop) handle(ctx context.Context, logger *slog.Logger, line string) bool {
	res, err := l.Processor.Process(line)
	switch {
	case errors.Is(err, history.ErrParse):
		logger.Warn("malformed temperature history", "line", line, "error", err)
		return false
	case errors.Is(err, forecast.ErrInsufficientData):
		l.Console.Series(res.Temperatures)
		logger.Warn("not enough valid readings to forecast",
			"readings", len(res.Temperatures),
			"differences", len(res.Differences),
		)
		return false
	case err != nil:
		logger.Warn("line processing failed", "error", err)
		return false
	case !res.Matched:
		return false
	}

	l.Console.Series(res.Temperatures)
	if res.Prediction != nil {
		l.Console.Prediction(*res.Prediction)
		logger.Debug("forecast",
			"slope", res.Prediction.Model.Slope,
			"intercept", res.Prediction.Model.Intercept,
			"predicted", res.Prediction.Value,
		)
	}

	for _, s := range l.Sinks {
		if err := s.Handle(ctx, res); err != nil {
			logger.Warn("sink failed", "sink", s.Name(), "error", err)
		}
	}
	return true
}
