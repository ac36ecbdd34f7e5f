package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gummygamer/smartraspberrytermometer/internal/app"
	"github.com/Gummygamer/smartraspberrytermometer/internal/config"
	"github.com/Gummygamer/smartraspberrytermometer/internal/device"
	"github.com/Gummygamer/smartraspberrytermometer/internal/logging"
)

var version = "dev"
var appName = "smartraspberrytermometer"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, cfg)

	var openErr *device.OpenError
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.As(err, &openErr):
		// A missing device is reported, not treated as a crash.
		fmt.Fprintf(os.Stdout, "Could not open serial port %s: %v\n", openErr.Port, openErr.Err)
		slog.Error("serial port unavailable", "port", openErr.Port, "err", openErr.Err)
	default:
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
