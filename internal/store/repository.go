package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"
)

//go:embed sql/insert-forecast.sql
var insertForecastSQL string

//go:embed sql/get-latest-forecasts.sql
var getLatestForecastsSQL string

// observedAtLayout is fixed width so observed_at sorts correctly as text.
const observedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Forecast is one journalled prediction. The readings behind it are not kept.
type Forecast struct {
	ID           int64
	StationID    string
	ObservedAt   time.Time
	ReadingCount int
	LastC        float64
	Slope        float64
	Intercept    float64
	PredictedC   float64
}

type ForecastRepository interface {
	InsertForecast(ctx context.Context, f Forecast) error
	LatestForecasts(ctx context.Context, stationID string, limit int) ([]Forecast, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ForecastRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertForecast(ctx context.Context, f Forecast) error {
	if f.StationID == "" {
		return fmt.Errorf("station_id is required")
	}
	if f.ReadingCount < 2 {
		return fmt.Errorf("reading_count must be at least 2, got %d", f.ReadingCount)
	}
	if f.ObservedAt.IsZero() {
		f.ObservedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, insertForecastSQL,
		f.StationID,
		f.ObservedAt.UTC().Format(observedAtLayout),
		f.ReadingCount,
		f.LastC,
		f.Slope,
		f.Intercept,
		f.PredictedC,
	)
	if err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}
	return nil
}

func (r *repositoryImpl) LatestForecasts(ctx context.Context, stationID string, limit int) ([]Forecast, error) {
	rows, err := r.db.QueryContext(ctx, getLatestForecastsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close forecast rows", "error", err)
		}
	}()

	var out []Forecast
	for rows.Next() {
		var f Forecast
		var ts string
		if err := rows.Scan(&f.ID, &f.StationID, &ts, &f.ReadingCount, &f.LastC, &f.Slope, &f.Intercept, &f.PredictedC); err != nil {
			return nil, err
		}
		t, err := time.Parse(observedAtLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse observed_at %q: %w", ts, err)
		}
		f.ObservedAt = t
		out = append(out, f)
	}
	return out, rows.Err()
}
