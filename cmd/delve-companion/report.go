package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/speaax/delve-companion/internal/charts"
	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/stats"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/tracker"
)

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	mode := fs.String("mode", tracker.DefaultGameMode, "Game mode")
	viewName := fs.String("view", "ALL", "Profile view: ALL, SESSION or MANUAL")
	kind := fs.String("kind", "luck", "Chart kind: luck or progress")
	out := fs.String("out", "", "Write an HTML chart to this file")
	open := fs.Bool("open", false, "Open the chart in the browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	view, err := tracker.ParseView(*viewName)
	if err != nil {
		return err
	}
	if *kind != "luck" && *kind != "progress" {
		return fmt.Errorf("unknown chart kind %q", *kind)
	}

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	summary := a.tracker.Summary(*mode, view)
	printSummary(os.Stdout, summary, a.modes)

	if *out == "" && !*open {
		return nil
	}
	path := *out
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("delve-%s-%s.html", summary.Mode, *kind))
	}

	rows := charts.RowsFromReport(summary.Luck, a.modes)
	cfg := charts.DefaultChartConfig()
	cfg.Subtitle = fmt.Sprintf("%s / %s, %d kills", summary.Mode, summary.View, summary.TotalKills)

	render := func(w io.Writer) error { return charts.RenderLuckChart(rows, cfg, w) }
	if *kind == "progress" {
		render = func(w io.Writer) error { return charts.RenderProgressChart(rows, cfg, w) }
	}
	if err := charts.RenderFile(path, render); err != nil {
		return err
	}
	fmt.Printf("Chart written to %s\n", path)

	if *open {
		if err := charts.OpenInBrowser(path); err != nil {
			return fmt.Errorf("open chart: %w", err)
		}
	}
	return nil
}

// printSummary writes the kill counts and the luck table for one profile.
func printSummary(w io.Writer, s *tracker.Summary, modes map[droprates.ItemID]models.DisplayMode) {
	title := fmt.Sprintf("%s / %s", s.Mode, s.View)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))

	fmt.Fprintf(w, "Total kills: %d\n", s.TotalKills)
	for floor := 1; floor <= droprates.LastFloor; floor++ {
		if n := s.Profile.KillsAt(floor); n > 0 {
			fmt.Fprintf(w, "  Floor %d: %d\n", floor, n)
		}
	}
	if s.Profile.WavesPast8 > 0 {
		fmt.Fprintf(w, "  Floor 8+: %d\n", s.Profile.WavesPast8)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-28s %10s %7s %9s %s\n", "Item", "Expected", "Actual", "Luck", "Next drop")
	for _, row := range s.Luck.Items {
		if modes[row.Item.ID] == models.DisplayHide {
			continue
		}
		printLuckRow(w, row.Item.Name, row)
	}
	printLuckRow(w, "Any unique", s.Luck.Any)
	fmt.Fprintln(w)
}

func printLuckRow(w io.Writer, name string, row stats.ItemLuck) {
	fmt.Fprintf(w, "%-28s %10.3f %7d %+9.3f %5.1f%%\n",
		name, row.Expected, row.Actual, row.Luck, row.Progress.Fraction*100)
}

