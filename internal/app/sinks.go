package app

import (
	"context"
	"time"

	"github.com/Gummygamer/smartraspberrytermometer/internal/mqtt"
	"github.com/Gummygamer/smartraspberrytermometer/internal/pipeline"
	"github.com/Gummygamer/smartraspberrytermometer/internal/plot"
	"github.com/Gummygamer/smartraspberrytermometer/internal/store"
)

// Sink receives every matched line that produced temperatures. Sinks that
// need a forecast ignore results without one.
type Sink interface {
	Name() string
	Handle(ctx context.Context, res pipeline.Result) error
}

type plotSink struct {
	w plot.FileWriter
}

func (s plotSink) Name() string { return "plot" }

func (s plotSink) Handle(_ context.Context, res pipeline.Result) error {
	if len(res.Temperatures) == 0 {
		return nil
	}
	return s.w.Write(res.Temperatures, res.Prediction)
}

type publisher interface {
	PublishTelemetry(mqtt.Telemetry) error
	PublishForecast(mqtt.ForecastMessage) error
}

type mqttSink struct {
	pub publisher
	now func() time.Time
}

func (s mqttSink) Name() string { return "mqtt" }

func (s mqttSink) Handle(_ context.Context, res pipeline.Result) error {
	if len(res.Temperatures) == 0 {
		return nil
	}
	ts := s.now()
	last := res.Temperatures[len(res.Temperatures)-1]
	if err := s.pub.PublishTelemetry(mqtt.Telemetry{Timestamp: ts, Temperature: &last}); err != nil {
		return err
	}
	if res.Prediction == nil {
		return nil
	}
	return s.pub.PublishForecast(mqtt.ForecastMessage{
		Timestamp:    ts,
		Temperatures: res.Temperatures,
		Slope:        res.Prediction.Model.Slope,
		Intercept:    res.Prediction.Model.Intercept,
		Predicted:    res.Prediction.Value,
	})
}

type journalSink struct {
	repo      store.ForecastRepository
	stationID string
	now       func() time.Time
}

func (s journalSink) Name() string { return "journal" }

func (s journalSink) Handle(ctx context.Context, res pipeline.Result) error {
	if res.Prediction == nil {
		return nil
	}
	return s.repo.InsertForecast(ctx, store.Forecast{
		StationID:    s.stationID,
		ObservedAt:   s.now(),
		ReadingCount: len(res.Temperatures),
		LastC:        res.Temperatures[len(res.Temperatures)-1],
		Slope:        res.Prediction.Model.Slope,
		Intercept:    res.Prediction.Model.Intercept,
		PredictedC:   res.Prediction.Value,
	})
}
