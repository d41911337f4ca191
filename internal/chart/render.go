// Package chart draws the 10-day temperature chart of a location and stores it
// under <base>/<region>/<city>/weather_<city>.png.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/weather-charts/internal/common"
	"github.com/i474232898/weather-charts/internal/weather"
)

const (
	defaultWidth  = 1024
	defaultHeight = 512

	tickLayout = "Jan 02"
)

var errEmptySeries = errors.New("series is empty")

// Renderer writes chart images below BasePath.
type Renderer struct {
	BasePath string
	Width    int
	Height   int
}

func NewRenderer(basePath string) *Renderer {
	return &Renderer{
		BasePath: basePath,
		Width:    defaultWidth,
		Height:   defaultHeight,
	}
}

// Dir returns the directory holding the chart of loc.
func (r *Renderer) Dir(loc weather.Location) string {
	return filepath.Join(r.BasePath, common.SafePathComponent(loc.Region), common.SafePathComponent(loc.City))
}

// Path returns the file the chart of loc is written to.
func (r *Renderer) Path(loc weather.Location) string {
	return filepath.Join(r.Dir(loc), fmt.Sprintf("weather_%s.png", common.SafePathComponent(loc.City)))
}

// Render draws the chart and saves it, creating directories as needed.
// Readers of the chart path only ever see a complete image: the PNG goes to a
// temporary file in the same directory which then replaces the chart.
func (r *Renderer) Render(loc weather.Location, series weather.Series, current weather.Reading) (string, error) {
	var buf bytes.Buffer
	if err := r.Draw(&buf, loc, series, current); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}

	dir := r.Dir(loc)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart directory: %w", err)
	}

	path := r.Path(loc)
	if err := writeFileAtomic(dir, path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}
	return path, nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".chart-*.png.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Draw renders the chart as PNG into w.
func (r *Renderer) Draw(w io.Writer, loc weather.Location, series weather.Series, current weather.Reading) error {
	if len(series) == 0 {
		return errEmptySeries
	}

	dates := series.Dates()
	mins := series.Mins()
	maxs := series.Maxs()

	yMin, yMax := valueBounds(current.Temperature, mins, maxs)
	xMin, xMax := timeBounds(current.Time, dates)

	ticks := make([]chart.Tick, 0, len(dates))
	for _, d := range dates {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(d), Label: d.Format(tickLayout)})
	}

	grid := chart.Style{
		StrokeColor: drawing.ColorFromHex("d8d8d8"),
		StrokeWidth: 1,
	}

	ch := chart.Chart{
		Title:  fmt.Sprintf("%s. Day temperature.", loc.City),
		Width:  r.width(),
		Height: r.height(),
		Background: chart.Style{
			Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           "Date, 1 day",
			Ticks:          ticks,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           "Temperature, C",
			Range:          &chart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "min day temperature, C",
				XValues: dates,
				YValues: mins,
				Style:   lineStyle(chart.ColorBlue),
			},
			chart.TimeSeries{
				Name:    "max day temperature, C",
				XValues: dates,
				YValues: maxs,
				Style:   lineStyle(chart.ColorRed),
			},
			chart.TimeSeries{
				Name:    fmt.Sprintf("current temp. %.1f, C", current.Temperature),
				XValues: []time.Time{current.Time, current.Time},
				YValues: []float64{current.Temperature, current.Temperature},
				Style:   pointStyle(chart.ColorGreen),
			},
			chart.TimeSeries{
				Name:    "now",
				XValues: []time.Time{current.Time, current.Time},
				YValues: []float64{yMin, yMax},
				Style: chart.Style{
					StrokeColor:     chart.ColorAlternateGray,
					StrokeWidth:     1,
					StrokeDashArray: []float64{4, 4},
				},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return ch.Render(chart.PNG, w)
}

func (r *Renderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return defaultWidth
}

func (r *Renderer) height() int {
	if r.Height > 0 {
		return r.Height
	}
	return defaultHeight
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// pointStyle renders points only.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    6,
		DotColor:    col,
	}
}

// valueBounds returns a padded Y range that is never empty, so a flat band
// (min == max every day) still renders.
func valueBounds(current float64, mins, maxs []float64) (float64, float64) {
	lo, hi := current, current
	for i := range mins {
		lo = math.Min(lo, mins[i])
		hi = math.Max(hi, maxs[i])
	}
	pad := (hi - lo) * 0.1
	if pad < 1 {
		pad = 1
	}
	return lo - pad, hi + pad
}

func timeBounds(current time.Time, dates []time.Time) (float64, float64) {
	lo, hi := current, current
	for _, d := range dates {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	pad := 6 * time.Hour
	return chart.TimeToFloat64(lo.Add(-pad)), chart.TimeToFloat64(hi.Add(pad))
}
