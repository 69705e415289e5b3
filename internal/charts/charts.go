// Package charts renders luck and progress reports as interactive HTML.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/stats"
	"github.com/speaax/delve-companion/internal/storage/models"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Colors     []string // Series colors: lucky/expected first, unlucky/actual second
	GreyColor  string   // Color for items shown greyed out
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#3BA272", "#EE6666"},
		GreyColor:  "#B0B0B0",
	}
}

// Row is one bar group of a chart.
type Row struct {
	Label    string
	Expected float64
	Actual   int
	Luck     float64
	Grey     bool
}

// RowsFromReport turns a luck report into chart rows. Items set to HIDE are
// left out and GREY items are flagged. The "any unique" row comes last.
func RowsFromReport(report stats.Report, modes map[droprates.ItemID]models.DisplayMode) []Row {
	rows := make([]Row, 0, len(report.Items)+1)
	for _, it := range report.Items {
		mode := modes[it.Item.ID]
		if mode == models.DisplayHide {
			continue
		}
		rows = append(rows, Row{
			Label:    it.Item.Name,
			Expected: it.Expected,
			Actual:   it.Actual,
			Luck:     it.Luck,
			Grey:     mode == models.DisplayGrey,
		})
	}
	rows = append(rows, Row{
		Label:    report.Any.Item.Name,
		Expected: report.Any.Expected,
		Actual:   report.Any.Actual,
		Luck:     report.Any.Luck,
	})
	return rows
}

func newBar(config ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
	)
	return bar
}

func labels(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func color(config ChartConfig, i int) string {
	if len(config.Colors) == 0 {
		return ""
	}
	return config.Colors[i%len(config.Colors)]
}

// RenderLuckChart writes a bar chart of actual minus expected drops per row.
// Positive bars use the first color, negative bars the second.
func RenderLuckChart(rows []Row, config ChartConfig, w io.Writer) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to chart")
	}
	bar := newBar(config)

	data := make([]opts.BarData, len(rows))
	for i, r := range rows {
		c := color(config, 0)
		if r.Luck < 0 {
			c = color(config, 1)
		}
		if r.Grey {
			c = config.GreyColor
		}
		data[i] = opts.BarData{
			Value:     r.Luck,
			ItemStyle: &opts.ItemStyle{Color: c},
		}
	}

	bar.SetXAxis(labels(rows)).
		AddSeries("Luck", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderProgressChart writes grouped bars of expected and actual drops.
func RenderProgressChart(rows []Row, config ChartConfig, w io.Writer) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to chart")
	}
	bar := newBar(config)

	expected := make([]opts.BarData, len(rows))
	actual := make([]opts.BarData, len(rows))
	for i, r := range rows {
		expected[i] = opts.BarData{Value: r.Expected}
		actual[i] = opts.BarData{Value: r.Actual}
		if r.Grey {
			expected[i].ItemStyle = &opts.ItemStyle{Color: config.GreyColor}
			actual[i].ItemStyle = &opts.ItemStyle{Color: config.GreyColor}
		}
	}

	bar.SetXAxis(labels(rows)).
		AddSeries("Expected", expected, charts.WithItemStyleOpts(opts.ItemStyle{Color: color(config, 0)})).
		AddSeries("Actual", actual, charts.WithItemStyleOpts(opts.ItemStyle{Color: color(config, 1)})).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderFile creates outputPath and renders into it with render.
func RenderFile(outputPath string, render func(io.Writer) error) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return render(f)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
