// Package charts renders report charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/norms"
	"github.com/mind-engage/motorskill/internal/protocol"
)

var (
	colorLow    = drawing.ColorFromHex("e74c3c")
	colorOK     = drawing.ColorFromHex("2ecc71")
	colorPeer   = drawing.ColorFromHex("95a5a6")
	colorCurve  = drawing.ColorFromHex("34495e")
	colorMarker = drawing.ColorFromHex("c0392b")
)

// ErrTooFewPoints is returned when a trend has fewer than two evaluations.
var ErrTooFewPoints = errors.New("charts: trend needs at least two evaluations")

const (
	barWidth   = 36
	barSpacing = 8
)

// Bar compares each sub-test's raw score with the peer mean, both as a
// percentage of the sub-test max. Raw bars under half the max are red.
func Bar(w io.Writer, rep norms.Report, title string) error {
	rows := rep.SubTests()
	if len(rows) == 0 {
		return errors.New("charts: report has no sub-tests")
	}
	bars := make([]chart.Value, 0, 2*len(rows))
	for _, r := range rows {
		raw := pct(float64(r.Raw), r.Max)
		fill := colorOK
		if raw < 50 {
			fill = colorLow
		}
		bars = append(bars,
			chart.Value{Label: r.Name, Value: raw, Style: chart.Style{FillColor: fill, StrokeColor: fill}},
			chart.Value{Label: "peer", Value: pct(r.Mean, r.Max), Style: chart.Style{FillColor: colorPeer, StrokeColor: colorPeer}},
		)
	}
	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 20}},
		Width:      len(bars)*(barWidth+barSpacing) + 160,
		Height:     480,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Name:  "% of max",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// BellCurve draws the standard normal density with the z position marked.
// z is clamped to ±4 for display.
func BellCurve(w io.Writer, z float64, label string) error {
	if math.IsNaN(z) {
		z = 0
	}
	z = math.Max(-4, math.Min(4, z))
	n := distuv.Normal{Mu: 0, Sigma: 1}

	const steps = 161
	xs := make([]float64, steps)
	ys := make([]float64, steps)
	for i := range xs {
		x := -4 + 8*float64(i)/float64(steps-1)
		xs[i] = x
		ys[i] = n.Prob(x)
	}
	peak := n.Prob(z)

	graph := chart.Chart{
		Title:  label,
		Width:  720,
		Height: 360,
		XAxis:  chart.XAxis{Name: "z-score", Range: &chart.ContinuousRange{Min: -4, Max: 4}},
		YAxis:  chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 0.45}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "peer distribution",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: colorCurve, StrokeWidth: 2, FillColor: colorCurve.WithAlpha(40)},
			},
			chart.ContinuousSeries{
				Name:    "position",
				XValues: []float64{z, z},
				YValues: []float64{0, peak},
				Style:   chart.Style{StrokeColor: colorMarker, StrokeWidth: 3},
			},
			chart.AnnotationSeries{
				Annotations: []chart.Value2{{XValue: z, YValue: peak, Label: fmt.Sprintf("z = %.2f", z)}},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// Trend plots domain aggregates and the grand total across a subject's
// evaluations, oldest first.
func Trend(w io.Writer, p *protocol.Protocol, records []assessment.Record, title string) error {
	if len(records) < 2 {
		return ErrTooFewPoints
	}
	var series []chart.Series
	palette := []drawing.Color{colorOK, colorMarker, colorCurve, colorPeer}
	for i, d := range p.Domains {
		ts := chart.TimeSeries{Name: d.Name, Style: chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2}}
		for _, r := range records {
			ts.XValues = append(ts.XValues, r.EvaluatedOn)
			ts.YValues = append(ts.YValues, float64(assessment.DomainTotal(p, r, d.Key)))
		}
		series = append(series, ts)
	}
	total := chart.TimeSeries{Name: "Total", Style: chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 3}}
	for _, r := range records {
		total.XValues = append(total.XValues, r.EvaluatedOn)
		total.YValues = append(total.YValues, float64(assessment.GrandTotal(p, r)))
	}
	series = append(series, total)

	graph := chart.Chart{
		Title:  title,
		Width:  720,
		Height: 360,
		XAxis:  chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:  chart.YAxis{Name: "score", Range: &chart.ContinuousRange{Min: 0, Max: float64(p.TotalMax())}},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// PNG runs a render function into memory.
func PNG(render func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pct(v float64, max int) float64 {
	if max <= 0 {
		return 0
	}
	return v * 100 / float64(max)
}
