package scenario

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Theme selects chart colors.
type Theme string

// Chart themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	chartWidth         = "100%"
	chartHeight        = "420px"
	lineWidth          = 2
	dataZoomEndPercent = 100
)

type palette struct {
	background string
	text       string
	muted      string
	grid       string
	echarts    string
	series     []string
}

var palettes = map[Theme]palette{
	ThemeLight: {
		background: "#ffffff",
		text:       "#21201c",
		muted:      "#63635e",
		grid:       "#e9e8e2",
		echarts:    "white",
		series:     []string{"#ad7f58", "#3e63dd", "#30a46c", "#e5484d"},
	},
	ThemeDark: {
		background: "#191918",
		text:       "#eeeeec",
		muted:      "#b5b3ad",
		grid:       "#2a2a28",
		echarts:    "dark",
		series:     []string{"#dbb594", "#849dff", "#3dd68c", "#ff9592"},
	},
}

func paletteFor(theme Theme) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}

	return palettes[ThemeDark]
}

// RenderChart writes an HTML page with the scroll timeline and the rendered
// ranges of frames.
func RenderChart(w io.Writer, title string, frames []Frame, theme Theme) error {
	p := paletteFor(theme)

	labels := make([]string, len(frames))
	for i, f := range frames {
		labels[i] = strconv.Itoa(f.Step) + ":" + string(f.Op)
	}

	offsets := lineChart(p, title, "Scroll", labels, "offset")
	offsets.AddSeries("offset", lineData(frames, func(f Frame) any { return f.Offset }), seriesOpts(p.series[0])...)
	offsets.AddSeries("total size", lineData(frames, func(f Frame) any { return f.TotalSize }), seriesOpts(p.series[1])...)

	ranges := lineChart(p, title, "Ranges", labels, "index")
	ranges.AddSeries("virtual start", lineData(frames, func(f Frame) any { return f.Virtual.Start }), seriesOpts(p.series[2])...)
	ranges.AddSeries("virtual end", lineData(frames, func(f Frame) any { return f.Virtual.End }), seriesOpts(p.series[2])...)
	ranges.AddSeries("visible start", lineData(frames, func(f Frame) any { return f.Visible.Start }), seriesOpts(p.series[3])...)
	ranges.AddSeries("visible end", lineData(frames, func(f Frame) any { return f.Visible.End }), seriesOpts(p.series[3])...)

	page := components.NewPage()
	page.AddCharts(offsets, ranges)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func lineChart(p palette, title, subtitle string, labels []string, yName string) *charts.Line {
	axisLabel := &opts.AxisLabel{Color: p.muted}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: p.background,
			Theme:           p.echarts,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         title,
			Subtitle:      subtitle,
			TitleStyle:    &opts.TextStyle{Color: p.text},
			SubtitleStyle: &opts.TextStyle{Color: p.muted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "8%", TextStyle: &opts.TextStyle{Color: p.muted}}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "step", AxisLabel: axisLabel}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      yName,
			AxisLabel: axisLabel,
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: p.grid}},
		}),
	)
	line.SetXAxis(labels)

	return line
}

func lineData(frames []Frame, value func(Frame) any) []opts.LineData {
	data := make([]opts.LineData, len(frames))
	for i, f := range frames {
		data[i] = opts.LineData{Value: value(f)}
	}

	return data
}

func seriesOpts(color string) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Step: "end"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Color: color}),
	}
}
