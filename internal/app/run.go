// Package app wires the serial reader, the line pipeline and the optional outputs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Gummygamer/smartraspberrytermometer/internal/baseline"
	"github.com/Gummygamer/smartraspberrytermometer/internal/config"
	"github.com/Gummygamer/smartraspberrytermometer/internal/device"
	"github.com/Gummygamer/smartraspberrytermometer/internal/mqtt"
	"github.com/Gummygamer/smartraspberrytermometer/internal/pipeline"
	"github.com/Gummygamer/smartraspberrytermometer/internal/plot"
	"github.com/Gummygamer/smartraspberrytermometer/internal/report"
	"github.com/Gummygamer/smartraspberrytermometer/internal/store"
)

// serialPort is the line source Run reads from.
type serialPort interface {
	device.LineSource
	Name() string
}

var openPort = func(cfg config.Config) (serialPort, error) {
	p, err := device.Open(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Run opens the serial port and processes lines until interrupted, the first
// history line is handled, or the port fails. A port that cannot be opened is
// returned as *device.OpenError.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing reader",
		"serial_port", cfg.SerialPort,
		"baud_rate", cfg.SerialBaudRate,
		"baseline_source", cfg.BaselineSource,
		"forecast", cfg.ForecastEnabled,
		"plot_path", cfg.PlotPath,
		"mqtt_broker", cfg.MQTTBroker,
		"sqlite_path", cfg.SQLitePath,
	)

	base, err := baseline.FromConfig(cfg).Baseline(ctx)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	slog.Info("baseline resolved", "celsius", base)

	if err := plot.LoadTemplates(); err != nil {
		return err
	}

	port, err := openPort(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := port.Close(); err != nil {
			slog.Error("serial close", "port", port.Name(), "error", err)
		}
	}()

	sinks, closeSinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	console := report.NewConsole(os.Stdout)
	console.Banner(port.Name())

	loop := &Loop{
		Source: port,
		Processor: pipeline.NewProcessor(pipeline.Config{
			Baseline: base,
			Forecast: cfg.ForecastEnabled,
		}),
		Console:             console,
		Sinks:               sinks,
		StopAfterFirstMatch: cfg.StopAfterFirstMatch,
		Logger:              slog.Default(),
	}
	return loop.Run(ctx)
}

// openSinks builds the optional outputs. The returned func releases whatever
// was opened and is safe to call even when err is non-nil.
func openSinks(ctx context.Context, cfg config.Config) ([]Sink, func(), error) {
	var sinks []Sink
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PlotPath != "" {
		sinks = append(sinks, plotSink{w: plot.FileWriter{Path: cfg.PlotPath}})
	}

	if cfg.JournalEnabled() {
		db, err := store.Open(ctx, cfg)
		if err != nil {
			return nil, closeAll, fmt.Errorf("forecast journal: %w", err)
		}
		closers = append(closers, func() {
			if err := store.Close(db); err != nil {
				slog.Error("db close", "error", err)
			}
		})
		repo := store.NewRepository(db)
		logLastForecast(ctx, repo, cfg.StationID)
		sinks = append(sinks, journalSink{repo: repo, stationID: cfg.StationID, now: time.Now})
	}

	if cfg.MQTTEnabled() {
		client, err := mqtt.NewClient(cfg, slog.Default())
		if err != nil {
			return nil, closeAll, err
		}
		// A short connect timeout keeps an absent broker from delaying the read loop.
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Connect(connectCtx)
		cancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
			client.Disconnect()
		} else {
			closers = append(closers, client.Disconnect)
			sinks = append(sinks, mqttSink{pub: client, now: time.Now})
		}
	}

	return sinks, closeAll, nil
}

func logLastForecast(ctx context.Context, repo store.ForecastRepository, stationID string) {
	last, err := repo.LatestForecasts(ctx, stationID, 1)
	if err != nil {
		slog.Warn("read last forecast", "error", err)
		return
	}
	if len(last) == 0 {
		slog.Info("no previous forecast", "station_id", stationID)
		return
	}
	slog.Info("previous forecast",
		"station_id", stationID,
		"observed_at", last[0].ObservedAt,
		"predicted_c", last[0].PredictedC,
		"readings", last[0].ReadingCount,
	)
}
