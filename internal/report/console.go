// Package report writes the echoed stream and results to the console.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Gummygamer/smartraspberrytermometer/internal/forecast"
)

// Console is the user-facing text output. It is kept apart from the logger so
// the echoed serial stream stays readable.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Banner(port string) {
	fmt.Fprintf(c.w, "Connected to %s. Waiting for data...\n", port)
}

// Echo prints a decoded line verbatim.
func (c *Console) Echo(line string) {
	fmt.Fprintln(c.w, line)
}

func (c *Console) Series(temps []float64) {
	parts := make([]string, len(temps))
	for i, v := range temps {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	fmt.Fprintf(c.w, "Absolute temperatures: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(c.w, "Number of readings: %d\n", len(temps))
}

func (c *Console) Prediction(p forecast.Prediction) {
	fmt.Fprintf(c.w, "Predicted next temperature: %.2f\n", p.Value)
}

func (c *Console) Stopped() {
	fmt.Fprintln(c.w, "Script terminated by user.")
}
