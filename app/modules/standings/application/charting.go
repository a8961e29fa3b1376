package standingsservice

import (
	"bytes"
	"errors"
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette is the colour scheme of rendered charts.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultChartPalette is used by RenderRatingChart.
var DefaultChartPalette = ChartPalette{
	Background:  drawing.ColorFromHex("0f172a"),
	PrimaryLine: drawing.ColorFromHex("38bdf8"),
	AccentLine:  drawing.ColorFromHex("facc15"),
	TextColor:   drawing.ColorFromHex("e2e8f0"),
}

// GenerateRatingChart produces a PNG line chart of a player's rating over
// the season.
func GenerateRatingChart(history []standingsdomain.RatingChange, palette ChartPalette) ([]byte, error) {
	if len(history) == 0 {
		return nil, errors.New("no rating history to chart")
	}

	// The series starts from the rating before the first change. A history
	// confined to one instant gets a day of run-up so the time axis has a width.
	start := history[0].At
	if !history[len(history)-1].At.After(start) {
		start = start.Add(-24 * time.Hour)
	}
	xValues := []time.Time{start}
	yValues := []float64{float64(history[0].RatingBefore)}
	low, high := yValues[0], yValues[0]
	for _, entry := range history {
		v := float64(entry.RatingAfter)
		xValues = append(xValues, entry.At)
		yValues = append(yValues, v)
		low = min(low, v)
		high = max(high, v)
	}

	yAxis := chart.YAxis{
		Name: "Rating",
		Style: chart.Style{
			FontColor: palette.TextColor,
		},
	}
	if low == high {
		yAxis.Range = &chart.ContinuousRange{Min: low - 10, Max: high + 10}
	}

	mainSeries := chart.TimeSeries{
		Name:    "Rating",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		YAxis:  yAxis,
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
