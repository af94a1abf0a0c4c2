package chartrender

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no chart points to render")

// Renderer draws prediction charts as PNG images.
type Renderer struct {
	width  int
	height int
}

// NewRenderer builds a renderer with the given canvas size.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 576
	}
	return &Renderer{width: width, height: height}
}

// RenderPNG plots predicted, bound and actual series of data.
func (r *Renderer) RenderPNG(title string, data forecast.ChartData) ([]byte, error) {
	if len(data.Points) == 0 {
		return nil, ErrNoData
	}

	dates := make([]time.Time, 0, len(data.Points))
	predicted := make([]float64, 0, len(data.Points))
	for _, p := range data.Points {
		dates = append(dates, p.Date)
		predicted = append(predicted, p.Predicted)
	}
	// go-chart needs two x values to compute a range.
	if len(dates) == 1 {
		dates = append(dates, dates[0].Add(24*time.Hour))
		predicted = append(predicted, predicted[0])
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    forecast.LabelPredicted,
			XValues: dates,
			YValues: predicted,
			Style:   lineStyle(forecast.ColorPredicted, false),
		},
	}
	if data.HasLower {
		series = append(series, presentRuns(forecast.LabelLower, data.Points, func(p forecast.ChartPoint) *float64 { return p.LowerBound }, forecast.ColorBound, true)...)
	}
	if data.HasUpper {
		series = append(series, presentRuns(forecast.LabelUpper, data.Points, func(p forecast.ChartPoint) *float64 { return p.UpperBound }, forecast.ColorBound, true)...)
	}
	if data.HasActual {
		series = append(series, presentRuns(forecast.LabelActual, data.Points, func(p forecast.ChartPoint) *float64 { return p.Actual }, forecast.ColorActual, false)...)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 30, Bottom: 10}},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return forecast.FormatDate(chart.TimeFromFloat64(f))
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return forecast.FormatCurrency(f)
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// presentRuns splits an optional value into one series per run of consecutive
// points that carry it. Only the first run is named.
func presentRuns(name string, points []forecast.ChartPoint, pick func(forecast.ChartPoint) *float64, color forecast.ColorToken, dashed bool) []chart.Series {
	var (
		runs    []chart.Series
		dates   []time.Time
		values  []float64
		flushed bool
	)
	flush := func() {
		if len(dates) == 0 {
			return
		}
		style := lineStyle(color, dashed)
		if len(dates) == 1 {
			style.DotWidth = 3
			style.DotColor = style.StrokeColor
		}
		run := chart.TimeSeries{XValues: dates, YValues: values, Style: style}
		if !flushed {
			run.Name = name
			flushed = true
		}
		runs = append(runs, run)
		dates, values = nil, nil
	}
	for _, p := range points {
		v := pick(p)
		if v == nil {
			flush()
			continue
		}
		dates = append(dates, p.Date)
		values = append(values, *v)
	}
	flush()
	return runs
}

func lineStyle(color forecast.ColorToken, dashed bool) chart.Style {
	style := chart.Style{
		StrokeColor: drawing.ColorFromHex(trimHash(string(color))),
		StrokeWidth: 2,
	}
	if dashed {
		style.StrokeWidth = 1
		style.StrokeDashArray = []float64{5, 5}
	}
	return style
}

func trimHash(hex string) string {
	if len(hex) > 0 && hex[0] == '#' {
		return hex[1:]
	}
	return hex
}
