package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

var ErrNothingToRender = errors.New("chart has no data to render")

const (
	DefaultWidth  = 1024
	DefaultHeight = 300
)

// RenderPNG draws the chart as a line chart with points, one color per series.
// An explicit domain wins over zero anchoring. Without a domain the range is
// fitted to the data, including zero when the policy is zero anchored.
func RenderPNG(mc MetricChart, width, height int) ([]byte, error) {
	if mc.Empty || len(mc.Series) == 0 {
		return nil, ErrNothingToRender
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	series := make([]chart.Series, 0, len(mc.Series))
	var minX, maxX time.Time
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, s := range mc.Series {
		xs := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j] = p.X
			ys[j] = p.Value
			if minX.IsZero() || p.X.Before(minX) {
				minX = p.X
			}
			if maxX.IsZero() || p.X.After(maxX) {
				maxX = p.X
			}
			minY = math.Min(minY, p.Value)
			maxY = math.Max(maxY, p.Value)
		}

		color := chart.GetDefaultColor(i)
		series = append(series, chart.TimeSeries{
			Name:    s.Key,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	// go-chart rejects zero width ranges, e.g. a single measurement day
	padX := 12 * time.Hour
	xRange := &chart.ContinuousRange{
		Min: chart.TimeToFloat64(minX.Add(-padX)),
		Max: chart.TimeToFloat64(maxX.Add(padX)),
	}

	yAxis := chart.YAxis{
		Name:  mc.Label,
		Range: yRange(mc, minY, maxY),
	}
	for _, t := range mc.Ticks {
		yAxis.Ticks = append(yAxis.Ticks, chart.Tick{
			Value: t,
			Label: strconv.FormatFloat(t, 'f', -1, 64),
		})
	}

	format := mc.XFormat
	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: xRange,
			ValueFormatter: func(v interface{}) string {
				return chart.TimeValueFormatterWithFormat(v, format)
			},
		},
		YAxis:  yAxis,
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart [%s]: %w", mc.Label, err)
	}
	return buf.Bytes(), nil
}

func yRange(mc MetricChart, minY, maxY float64) *chart.ContinuousRange {
	if d := mc.Scale.Domain; d != nil {
		lo, hi := math.Min(d.Min, d.Max), math.Max(d.Min, d.Max)
		if hi > lo {
			return &chart.ContinuousRange{Min: lo, Max: hi}
		}
	}

	if mc.Scale.Zero {
		minY, maxY = math.Min(minY, 0), math.Max(maxY, 0)
	}
	pad := (maxY - minY) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(maxY)*0.05, 1)
	}
	return &chart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
}
