package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/speaax/delve-companion/internal/tracker"
)

func runResetManual(args []string) error {
	fs := flag.NewFlagSet("reset-manual", flag.ExitOnError)
	mode := fs.String("mode", tracker.DefaultGameMode, "Game mode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.tracker.ResetManual(ctx, *mode); err != nil {
		return fmt.Errorf("reset manual profile: %w", err)
	}
	fmt.Printf("Manual profile for %s reset.\n", tracker.NormalizeMode(*mode))
	return nil
}
