package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/tracker"
)

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	mode := fs.String("mode", tracker.DefaultGameMode, "Game mode")
	period := fs.String("period", "week", "Period: today, week, month or all")
	limit := fs.Int("limit", 20, "Number of recent events to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.storage.History(ctx, tracker.NormalizeMode(*mode), *period, *limit)
	if err != nil {
		return err
	}

	fmt.Printf("History for %s (%s)\n\n", tracker.NormalizeMode(*mode), h.Range.FormatPeriod())

	kinds := make([]string, 0, len(h.Counts))
	for k := range h.Counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-16s %d\n", k, h.Counts[models.EventKind(k)])
	}
	if len(kinds) == 0 {
		fmt.Println("No events recorded in this period.")
		return nil
	}
	fmt.Println()

	printSummary(os.Stdout, a.tracker.Describe(tracker.NormalizeMode(*mode), models.ViewAll, h.Profile), a.modes)

	fmt.Println("Recent events")
	fmt.Println("-------------")
	for _, ev := range h.Events {
		fmt.Printf("  %s  %s\n", ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), describeEvent(a, ev))
	}
	return nil
}

func describeEvent(a *app, ev *models.DelveEvent) string {
	switch {
	case ev.Floor != nil:
		return fmt.Sprintf("%s floor %s", ev.Kind, *ev.Floor)
	case ev.ItemID != nil:
		if it, ok := a.tracker.Table().Item(droprates.ItemID(*ev.ItemID)); ok {
			return fmt.Sprintf("%s %s", ev.Kind, it.Name)
		}
		return fmt.Sprintf("%s item %d", ev.Kind, *ev.ItemID)
	default:
		return string(ev.Kind)
	}
}
