package main

import (
	"machine"

	"tinygo.org/x/drivers/bme280"
)

// thermometer returns degrees Celsius.
type thermometer interface {
	Celsius() (float32, error)
}

type bmeSensor struct {
	device bme280.Device
}

// newBME280 returns nil when no sensor answers on I2C1.
func newBME280() *bmeSensor {
	i2c := machine.I2C1
	if err := i2c.Configure(machine.I2CConfig{
		SDA:       machine.GP14,
		SCL:       machine.GP15,
		Frequency: 400 * machine.KHz,
	}); err != nil {
		return nil
	}

	dev := bme280.New(i2c)
	if !dev.Connected() {
		return nil
	}
	dev.Configure()
	return &bmeSensor{device: dev}
}

func (s *bmeSensor) Celsius() (float32, error) {
	t, err := s.device.ReadTemperature()
	if err != nil {
		return 0, err
	}
	return float32(t) / 1000.0, nil
}

// dieSensor is the RP2040 internal temperature sensor.
type dieSensor struct{}

func (dieSensor) Celsius() (float32, error) {
	return float32(machine.ReadTemperature()) / 1000.0, nil
}
