// Package plot renders a temperature series and its forecast as an SVG chart.
package plot

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/Gummygamer/smartraspberrytermometer/internal/forecast"
)

//go:embed templates/*.svg
var templatesFS embed.FS

var chartTmpl *template.Template

// ErrEmptySeries is returned when there is nothing to draw.
var ErrEmptySeries = errors.New("plot: empty temperature series")

const (
	chartWidth   = 640.0
	chartHeight  = 400.0
	marginLeft   = 64.0
	marginRight  = 24.0
	marginTop    = 24.0
	marginBottom = 56.0
	maxXTicks    = 12
	yTickCount   = 5
)

// loadTemplatesFromFS is split out so tests can feed broken template sets.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	chartTmpl, err = template.ParseFS(sub, "*.svg")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates parses the embedded chart template. Call once at startup.
func LoadTemplates() error {
	return loadTemplatesFromFS(templatesFS, "templates")
}

type tick struct {
	Pos   float64
	Label string
}

type marker struct {
	X, Y  float64
	Label string
}

type segment struct {
	X1, Y1, X2, Y2 float64
}

type chartData struct {
	Title         string
	Width, Height float64
	Left, Right   float64
	Top, Bottom   float64

	XTicks, YTicks []tick
	XTickLabelY    float64
	YTickLabelX    float64
	XLabelX        float64
	XLabelY        float64
	YLabelX        float64
	YLabelY        float64

	Polyline        string
	Points          []marker
	Fit             *segment
	Predicted       *marker
	PredictedLabelY float64
}

// Render writes an SVG of series to w. When pred is non-nil its regression
// line and predicted point are overlaid.
func Render(w io.Writer, series []float64, pred *forecast.Prediction) error {
	if chartTmpl == nil {
		return errors.New("chart template not loaded: call plot.LoadTemplates during startup")
	}
	if len(series) == 0 {
		return ErrEmptySeries
	}
	return chartTmpl.ExecuteTemplate(w, "chart.svg", buildChart(series, pred))
}

func buildChart(series []float64, pred *forecast.Prediction) *chartData {
	n := len(series)

	xMax := float64(n - 1)
	if pred != nil {
		xMax = float64(pred.Index)
	}
	if xMax < 1 {
		xMax = 1
	}

	yMin, yMax := series[0], series[0]
	extend := func(v float64) {
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}
	for _, v := range series {
		extend(v)
	}
	if pred != nil {
		extend(pred.Value)
		extend(pred.Model.At(0))
	}
	if yMax-yMin < 1e-9 {
		yMin--
		yMax++
	}
	pad := (yMax - yMin) * 0.05
	yMin -= pad
	yMax += pad

	d := &chartData{
		Title:  fmt.Sprintf("Temperature history (%d readings)", n),
		Width:  chartWidth,
		Height: chartHeight,
		Left:   marginLeft,
		Right:  chartWidth - marginRight,
		Top:    marginTop,
		Bottom: chartHeight - marginBottom,
	}
	plotW := d.Right - d.Left
	plotH := d.Bottom - d.Top
	sx := func(x float64) float64 { return round2(d.Left + x/xMax*plotW) }
	sy := func(y float64) float64 { return round2(d.Top + (yMax-y)/(yMax-yMin)*plotH) }

	step := int(math.Ceil(xMax / maxXTicks))
	if step < 1 {
		step = 1
	}
	for i := 0; float64(i) <= xMax; i += step {
		d.XTicks = append(d.XTicks, tick{Pos: sx(float64(i)), Label: strconv.Itoa(i)})
	}
	for i := 0; i <= yTickCount; i++ {
		v := yMin + (yMax-yMin)*float64(i)/yTickCount
		d.YTicks = append(d.YTicks, tick{Pos: sy(v), Label: strconv.FormatFloat(v, 'f', 1, 64)})
	}

	d.XTickLabelY = d.Bottom + 18
	d.YTickLabelX = d.Left - 8
	d.XLabelX = round2(d.Left + plotW/2)
	d.XLabelY = chartHeight - 12
	d.YLabelX = 16
	d.YLabelY = round2(d.Top + plotH/2)

	coords := make([]string, n)
	d.Points = make([]marker, n)
	for i, v := range series {
		m := marker{X: sx(float64(i)), Y: sy(v), Label: fmt.Sprintf("t=%d %.2f °C", i, v)}
		d.Points[i] = m
		coords[i] = strconv.FormatFloat(m.X, 'f', -1, 64) + "," + strconv.FormatFloat(m.Y, 'f', -1, 64)
	}
	d.Polyline = strings.Join(coords, " ")

	if pred != nil {
		d.Fit = &segment{
			X1: sx(0), Y1: sy(pred.Model.At(0)),
			X2: sx(float64(pred.Index)), Y2: sy(pred.Value),
		}
		d.Predicted = &marker{
			X:     sx(float64(pred.Index)),
			Y:     sy(pred.Value),
			Label: fmt.Sprintf("next %.2f °C", pred.Value),
		}
		d.PredictedLabelY = d.Predicted.Y - 10
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
