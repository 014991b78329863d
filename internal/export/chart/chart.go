package chart

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/openshelf/reputation/internal/export/types"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyLeaderboard is returned when there is nothing to draw.
var ErrEmptyLeaderboard = errors.New("leaderboard has no entries")

const (
	// titleFontSize sets the size of the chart title text.
	titleFontSize = 12.0
	// barWidth and barSpacing size each bar in pixels.
	barWidth   = 40
	barSpacing = 10
	// minWidth keeps short leaderboards readable.
	minWidth = 640
	// chartHeight is the fixed image height.
	chartHeight = 480
	// horizontalPadding leaves room for the y-axis labels.
	horizontalPadding = 120
)

// Exporter renders leaderboard snapshots as PNG bar charts.
type Exporter struct {
	path string
}

// New creates a new chart exporter writing to path.
func New(path string) *Exporter {
	return &Exporter{path: path}
}

// Export renders the snapshot and overwrites the file at the exporter's path.
func (e *Exporter) Export(snapshot *types.Snapshot) error {
	file, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer file.Close()

	return Render(snapshot, file)
}

// Render draws one bar per ranked user, highlighting the top-ranked user.
func Render(snapshot *types.Snapshot, w io.Writer) error {
	if len(snapshot.Records) == 0 {
		return ErrEmptyLeaderboard
	}

	bars := make([]chart.Value, 0, len(snapshot.Records))
	maxReputation := 1.0

	for _, record := range snapshot.Records {
		style := chart.Style{
			FillColor:   chart.ColorBlue,
			StrokeColor: chart.ColorBlue,
		}
		if record.IsTopRanked {
			style.FillColor = chart.ColorOrange
			style.StrokeColor = chart.ColorOrange
		}

		value := float64(record.Reputation)
		maxReputation = max(maxReputation, value)

		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("#%d %s", record.Rank, record.Username),
			Value: value,
			Style: style,
		})
	}

	graph := chart.BarChart{
		Title: fmt.Sprintf("Reputation Leaderboard (%s)", snapshot.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")),
		TitleStyle: chart.Style{
			FontSize:  titleFontSize,
			FontColor: drawing.ColorBlack,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Width:      max(minWidth, horizontalPadding+len(bars)*(barWidth+barSpacing)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis: chart.Style{
			TextRotationDegrees: 45.0,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxReputation * 1.1},
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}
