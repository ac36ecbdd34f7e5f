// Package config loads reader settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BaselineStatic = "static"
	BaselineBME280 = "bme280"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	SerialPort        string
	SerialBaudRate    int
	SerialReadTimeout time.Duration
	SerialMaxLine     int

	// Baseline is added to every difference reading to get an absolute temperature.
	Baseline       float64
	BaselineSource string
	BME280Address  uint16

	ForecastEnabled     bool
	StopAfterFirstMatch bool
	PlotPath            string

	StationID    string
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	// SQLitePath enables the forecast journal when non-empty.
	SQLitePath string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	serialPort := envOr("SERIAL_PORT", "/dev/ttyACM0")

	baudRateStr := envOr("SERIAL_BAUD_RATE", "115200")
	baudRate, err := strconv.Atoi(baudRateStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", baudRateStr, err)
	}
	if baudRate <= 0 {
		return Config{}, fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", baudRate)
	}

	readTimeoutStr := envOr("SERIAL_READ_TIMEOUT", "1s")
	readTimeout, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERIAL_READ_TIMEOUT %q: %w", readTimeoutStr, err)
	}
	if readTimeout <= 0 {
		return Config{}, fmt.Errorf("SERIAL_READ_TIMEOUT must be positive, got %v", readTimeout)
	}

	maxLineStr := envOr("SERIAL_MAX_LINE", "4096")
	maxLine, err := strconv.Atoi(maxLineStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERIAL_MAX_LINE %q: %w", maxLineStr, err)
	}
	if maxLine <= 0 {
		return Config{}, fmt.Errorf("SERIAL_MAX_LINE must be positive, got %d", maxLine)
	}

	baselineStr := envOr("BASELINE_TEMPERATURE", "23.0")
	baseline, err := strconv.ParseFloat(baselineStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BASELINE_TEMPERATURE %q: %w", baselineStr, err)
	}

	baselineSource := strings.ToLower(envOr("BASELINE_SOURCE", BaselineStatic))
	switch baselineSource {
	case BaselineStatic, BaselineBME280:
	default:
		return Config{}, fmt.Errorf("invalid BASELINE_SOURCE %q (allowed: static, bme280)", baselineSource)
	}

	bme280AddressStr := envOr("BME280_ADDRESS", "0x76")
	bme280Address, err := strconv.ParseUint(bme280AddressStr, 0, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BME280_ADDRESS %q: %w", bme280AddressStr, err)
	}

	forecastEnabled, err := parseBool("FORECAST_ENABLED", envOr("FORECAST_ENABLED", "true"))
	if err != nil {
		return Config{}, err
	}
	stopAfterFirst, err := parseBool("STOP_AFTER_FIRST_MATCH", envOr("STOP_AFTER_FIRST_MATCH", "true"))
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	return Config{
		AppEnv:              appEnv,
		LogLevel:            level,
		SerialPort:          serialPort,
		SerialBaudRate:      baudRate,
		SerialReadTimeout:   readTimeout,
		SerialMaxLine:       maxLine,
		Baseline:            baseline,
		BaselineSource:      baselineSource,
		BME280Address:       uint16(bme280Address),
		ForecastEnabled:     forecastEnabled,
		StopAfterFirstMatch: stopAfterFirst,
		PlotPath:            strings.TrimSpace(os.Getenv("PLOT_PATH")),
		StationID:           envOr("STATION_ID", "pico"),
		MQTTBroker:          strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:            mqttPort,
		MQTTClientID:        envOr("MQTT_CLIENT_ID", "smartraspberrytermometer"),
		SQLitePath:          strings.TrimSpace(os.Getenv("SQLITE_PATH")),
	}, nil
}

// MQTTEnabled reports whether forecasts should be published to a broker.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

// JournalEnabled reports whether forecasts should be written to sqlite.
func (c Config) JournalEnabled() bool {
	return c.SQLitePath != ""
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseBool(key, s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
