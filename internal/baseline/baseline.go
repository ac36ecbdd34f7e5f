// Package baseline supplies the reference temperature that difference
// readings are offset from.
package baseline

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/Gummygamer/smartraspberrytermometer/internal/config"
)

type Source interface {
	Baseline(ctx context.Context) (float64, error)
}

// Static is a fixed, configured baseline.
type Static float64

func (s Static) Baseline(context.Context) (float64, error) {
	return float64(s), nil
}

// BME280 samples a BME280/BMP280 on the host I2C bus once per call.
type BME280 struct {
	Address uint16
	// Bus is the periph bus name; empty opens the default bus.
	Bus string
}

func (b BME280) Baseline(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := host.Init(); err != nil {
		return 0, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(b.Bus)
	if err != nil {
		return 0, fmt.Errorf("open i2c bus %q: %w", b.Bus, err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			slog.Warn("close i2c bus", "error", err)
		}
	}()

	dev, err := bmxx80.NewI2C(bus, b.Address, &bmxx80.DefaultOpts)
	if err != nil {
		return 0, fmt.Errorf("bme280 at 0x%02X: %w", b.Address, err)
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			slog.Warn("halt bme280", "error", err)
		}
	}()

	var env physic.Env
	if err := dev.Sense(&env); err != nil {
		return 0, fmt.Errorf("bme280 sense: %w", err)
	}
	celsius := env.Temperature.Celsius()

	slog.Info("baseline sampled from bme280",
		"address", fmt.Sprintf("0x%02X", b.Address),
		"celsius", celsius,
	)
	return celsius, nil
}

// FromConfig picks the source selected by BASELINE_SOURCE.
func FromConfig(cfg config.Config) Source {
	if cfg.BaselineSource == config.BaselineBME280 {
		return BME280{Address: cfg.BME280Address}
	}
	return Static(cfg.Baseline)
}
