package updater

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"aqwidget/internal/aqi"
	"aqwidget/internal/rainmeter"
	"aqwidget/pkg/logx"
)

const (
	defaultGraphWidth  = 450
	defaultGraphHeight = 220
	graphWindow        = 24 * time.Hour
)

// GraphFileName returns the PNG path (relative to the resources dir) for a
// location key.
func GraphFileName(key string) string {
	return "aqi_graph_" + key + ".png"
}

// renderGraphs draws a 24h AQI sparkline per location from the history
// store. Rendering is best-effort; a failed graph leaves the previous PNG in
// place.
func (u *Updater) renderGraphs(ctx context.Context, now time.Time) {
	since := now.Add(-graphWindow)
	for _, loc := range u.cfg.Locations {
		obs, err := u.store.Window(ctx, loc.Key, since)
		if err != nil {
			u.log.Warn("history window failed",
				logx.String("location", loc.Key), logx.Err(err))
			continue
		}

		var (
			xs []time.Time
			ys []float64
		)
		for _, o := range obs {
			if o.AQI == nil {
				continue
			}
			xs = append(xs, o.At)
			ys = append(ys, float64(*o.AQI))
		}
		if len(xs) < 2 {
			continue
		}

		png, err := renderAQISeries(xs, ys, u.cfg.Graphs)
		if err != nil {
			u.log.Warn("graph render failed",
				logx.String("location", loc.Key), logx.Err(err))
			continue
		}
		path := filepath.Join(u.cfg.ResourcesDir, GraphFileName(loc.Key))
		if err := rainmeter.WriteFile(path, png); err != nil {
			u.log.Warn("graph write failed",
				logx.String("location", loc.Key), logx.Err(err))
		}
	}
}

func renderAQISeries(xs []time.Time, ys []float64, cfg GraphConfig) ([]byte, error) {
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = defaultGraphWidth
	}
	if height <= 0 {
		height = defaultGraphHeight
	}

	// Stroke in the color of the latest sample's category so the graph
	// matches the headline number.
	stroke := categoryColor(int(ys[len(ys)-1]))

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: drawing.ColorTransparent,
			Padding:   chart.Box{Top: 8, Left: 8, Right: 8, Bottom: 8},
		},
		Canvas: chart.Style{FillColor: drawing.ColorTransparent},
		XAxis: chart.XAxis{
			Style:          chart.Style{FontColor: drawing.ColorFromHex("c8c8c8")},
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: drawing.ColorFromHex("c8c8c8")},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: stroke,
					StrokeWidth: 2.0,
					FillColor:   stroke.WithAlpha(48),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// categoryColor turns the "R,G,B,A" band color into a drawing color.
func categoryColor(value int) drawing.Color {
	parts := strings.Split(aqi.Categorize(value).Color, ",")
	if len(parts) != 4 {
		return drawing.ColorBlue
	}
	var ch [4]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return drawing.ColorBlue
		}
		ch[i] = uint8(v)
	}
	return drawing.Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
}
