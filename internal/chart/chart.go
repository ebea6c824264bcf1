// Package chart renders the ratios of a farm record as a bar chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"

	"agrovet/pkg/models"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// ErrRender is returned when the chart library fails to draw the image.
var ErrRender = errors.New("failed to render chart")

// axis labels, the full names do not fit under the bars
var shortLabels = map[string]string{
	"service_rate":            "Serviço",
	"pregnancy_rate":          "Prenhez",
	"conception_rate":         "Concepção",
	"diagnosis_rate":          "Diagnóstico",
	"calving_rate":            "Parição",
	"reproductive_efficiency": "Eficiência",
	"gestational_loss_rate":   "Perda gest.",
}

// Options controls the rendered image size and title.
type Options struct {
	Title  string
	Width  int
	Height int
}

// YMax is the upper bound of the percentage axis: 100, or 10% above the
// largest ratio when one exceeds 100.
func YMax(r models.Ratios) float64 {
	maxVal := 0.0
	for _, v := range r.Values() {
		if v.Value > maxVal {
			maxVal = v.Value
		}
	}
	if maxVal*1.1 > 100 {
		return maxVal * 1.1
	}
	return 100
}

// RenderRatios draws the seven ratios as a PNG bar chart.
func RenderRatios(r models.Ratios, opts Options) ([]byte, error) {
	const op = "RenderRatios"

	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Title == "" {
		opts.Title = "Indicadores reprodutivos (%)"
	}

	values := r.Values()
	bars := make([]gochart.Value, 0, len(values))
	for _, v := range values {
		bars = append(bars, gochart.Value{
			Label: shortLabels[v.Name],
			Value: v.Value,
		})
	}

	graph := gochart.BarChart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		BarWidth: opts.Width / (len(bars) * 2),
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: YMax(r)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrRender, err)
	}
	return buf.Bytes(), nil
}
