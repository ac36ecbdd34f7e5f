package main

import (
	"fmt"
	"machine"
	"time"
)

const (
	// baseline must match BASELINE_TEMPERATURE on the host.
	baseline       = 23.0
	historySize    = 10
	sampleInterval = 2 * time.Second
)

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.High()

	// Give the host time to enumerate the USB serial device.
	time.Sleep(1500 * time.Millisecond)

	var sensor thermometer = dieSensor{}
	if s := newBME280(); s != nil {
		sensor = s
		fmt.Println("sensor: bme280")
	} else {
		fmt.Println("sensor: rp2040 die")
	}

	history := make([]int, 0, historySize)
	for {
		c, err := sensor.Celsius()
		if err != nil {
			fmt.Println("read failed:", err)
			time.Sleep(sampleInterval)
			continue
		}
		fmt.Printf("Temperature: %.2f\n", c)

		history = append(history, difference(c))
		if len(history) == historySize {
			fmt.Print("Temperature history:")
			for _, d := range history {
				fmt.Printf(" %d", d)
			}
			fmt.Println()
			history = history[:0]
		}

		time.Sleep(sampleInterval)
	}
}

// difference rounds half away from zero.
func difference(c float32) int {
	d := c - baseline
	if d < 0 {
		return int(d - 0.5)
	}
	return int(d + 0.5)
}
