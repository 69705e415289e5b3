// Package tracker is the entry point for everything that feeds or reads the
// delve ledger: the chat log ingestor, the HTTP API and the CLI.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/events"
	"github.com/speaax/delve-companion/internal/profiles"
	"github.com/speaax/delve-companion/internal/stats"
	"github.com/speaax/delve-companion/internal/storage/models"
)

// DefaultGameMode is used when an event carries no game mode.
const DefaultGameMode = "STANDARD"

var (
	// ErrInvalidFloor is returned for floor text outside "1".."8" / "8+".
	ErrInvalidFloor = droprates.ErrInvalidFloor

	// ErrUnknownView is returned by ParseView.
	ErrUnknownView = errors.New("unknown view")
)

// HistorySink receives every accepted event after the ledger commits.
type HistorySink interface {
	AppendEvent(ctx context.Context, ev *models.DelveEvent) error
}

// Tracker validates inbound events, applies them to the profile store and
// answers statistics queries.
type Tracker struct {
	store      *profiles.Store
	table      *droprates.Table
	counted    func(droprates.ItemID) bool
	history    HistorySink
	dispatcher *events.EventDispatcher
	logger     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCounted sets the "any unique" predicate. The default counts every item.
func WithCounted(counted func(droprates.ItemID) bool) Option {
	return func(t *Tracker) { t.counted = counted }
}

// WithHistory appends accepted events to sink.
func WithHistory(sink HistorySink) Option {
	return func(t *Tracker) { t.history = sink }
}

// WithDispatcher publishes accepted events.
func WithDispatcher(d *events.EventDispatcher) Option {
	return func(t *Tracker) { t.dispatcher = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New returns a Tracker over store. A nil table uses droprates.Default.
func New(store *profiles.Store, table *droprates.Table, opts ...Option) *Tracker {
	if table == nil {
		table = droprates.Default()
	}
	t := &Tracker{
		store:  store,
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NormalizeMode trims and upper-cases mode; empty becomes DefaultGameMode.
func NormalizeMode(mode string) string {
	mode = strings.ToUpper(strings.TrimSpace(mode))
	if mode == "" {
		return DefaultGameMode
	}
	return mode
}

// ParseView wraps models.ParseView with ErrUnknownView.
func ParseView(s string) (models.View, error) {
	v, err := models.ParseView(s)
	if err != nil {
		return models.ViewAll, fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
	return v, nil
}

// Table returns the drop table in use.
func (t *Tracker) Table() *droprates.Table {
	return t.table
}

// Modes lists every game mode the store knows about.
func (t *Tracker) Modes() []string {
	return t.store.Modes()
}

// OnFloorCompleted records one completion of floorOrPlus ("1".."8" or "8+").
func (t *Tracker) OnFloorCompleted(ctx context.Context, mode, floorOrPlus string) error {
	floor, err := droprates.ParseFloor(floorOrPlus)
	if err != nil {
		return err
	}
	mode = NormalizeMode(mode)

	all, err := t.store.RecordFloorCompletion(ctx, mode, floor)
	if err != nil {
		return fmt.Errorf("record floor %s for %s: %w", floor, mode, err)
	}

	text := floor.String()
	t.afterCommit(ctx, &models.DelveEvent{GameMode: mode, Kind: models.EventFloorCompleted, Floor: &text},
		events.NewTypedEvent(events.TypeFloorCompleted, events.FloorCompletedEvent{
			GameMode:   mode,
			Floor:      text,
			TotalKills: all.TotalKills(),
		}, ctx))
	return nil
}

// OnDropObtained records one obtained unique. Untracked item IDs are kept.
func (t *Tracker) OnDropObtained(ctx context.Context, mode string, itemID int) error {
	mode = NormalizeMode(mode)
	all, err := t.store.RecordDrop(ctx, mode, itemID)
	if err != nil {
		return fmt.Errorf("record drop %d for %s: %w", itemID, mode, err)
	}

	var name string
	if it, ok := t.table.Item(droprates.ItemID(itemID)); ok {
		name = it.Name
	}
	t.afterCommit(ctx, &models.DelveEvent{GameMode: mode, Kind: models.EventDropObtained, ItemID: &itemID},
		events.NewTypedEvent(events.TypeDropObtained, events.DropObtainedEvent{
			GameMode: mode,
			ItemID:   itemID,
			ItemName: name,
			Obtained: all.ObtainedCount(itemID),
		}, ctx))
	return nil
}

// OnAuthoritativeKillSync overwrites the all-time kills with a scoreboard
// snapshot. Negative counts are rejected.
func (t *Tracker) OnAuthoritativeKillSync(ctx context.Context, mode string, levelKills map[int]int, wavesPast8 int) error {
	if wavesPast8 < 0 {
		return fmt.Errorf("waves past 8 cannot be negative: %d", wavesPast8)
	}
	for floor, n := range levelKills {
		if floor < droprates.FirstFloor || floor > droprates.LastFloor {
			return fmt.Errorf("%w: %d", ErrInvalidFloor, floor)
		}
		if n < 0 {
			return fmt.Errorf("kills on floor %d cannot be negative: %d", floor, n)
		}
	}
	mode = NormalizeMode(mode)

	if err := t.store.SyncAuthoritative(ctx, mode, levelKills, wavesPast8); err != nil {
		return fmt.Errorf("sync kills for %s: %w", mode, err)
	}
	t.afterCommit(ctx, &models.DelveEvent{GameMode: mode, Kind: models.EventKillsSynced},
		events.NewTypedEvent(events.TypeKillsSynced, events.KillsSyncedEvent{
			GameMode:   mode,
			LevelKills: levelKills,
			WavesPast8: wavesPast8,
		}, ctx))
	return nil
}

// OnAuthoritativeDropSync overwrites the all-time obtained counts with a
// collection log snapshot.
func (t *Tracker) OnAuthoritativeDropSync(ctx context.Context, mode string, obtained map[int]int) error {
	for item, n := range obtained {
		if n < 0 {
			return fmt.Errorf("obtained count for item %d cannot be negative: %d", item, n)
		}
	}
	mode = NormalizeMode(mode)

	if err := t.store.SyncObtainedDrops(ctx, mode, obtained); err != nil {
		return fmt.Errorf("sync drops for %s: %w", mode, err)
	}
	t.afterCommit(ctx, &models.DelveEvent{GameMode: mode, Kind: models.EventDropsSynced},
		events.NewTypedEvent(events.TypeDropsSynced, events.DropsSyncedEvent{
			GameMode: mode,
			Obtained: obtained,
		}, ctx))
	return nil
}

// ResetManual clears the manual profile of mode.
func (t *Tracker) ResetManual(ctx context.Context, mode string) error {
	mode = NormalizeMode(mode)
	if err := t.store.ResetManual(ctx, mode); err != nil {
		return fmt.Errorf("reset manual for %s: %w", mode, err)
	}
	t.afterCommit(ctx, &models.DelveEvent{GameMode: mode, Kind: models.EventManualReset},
		events.NewTypedEvent(events.TypeManualReset, events.ManualResetEvent{GameMode: mode}, ctx))
	return nil
}

// afterCommit records history and publishes the event. Failures are logged;
// the ledger has already changed by the time this runs.
func (t *Tracker) afterCommit(ctx context.Context, ev *models.DelveEvent, published events.Event) {
	if t.history != nil {
		if err := t.history.AppendEvent(ctx, ev); err != nil {
			t.logger.Warn("failed to append history", "mode", ev.GameMode, "kind", ev.Kind, "error", err)
		}
	}
	if t.dispatcher != nil {
		t.dispatcher.Dispatch(published)
	}
}

// GetProfile returns a copy of the profile for mode and view.
func (t *Tracker) GetProfile(mode string, view models.View) *models.Profile {
	return t.store.Profile(NormalizeMode(mode), view)
}

// GetExpectedDrops computes the expectation for p with the configured
// "any unique" predicate.
func (t *Tracker) GetExpectedDrops(p *models.Profile) stats.Expectation {
	return stats.Calculate(p, t.table, t.counted)
}

// GetLuck computes the luck report for p.
func (t *Tracker) GetLuck(p *models.Profile) stats.Report {
	return stats.LuckReport(p, t.table, t.GetExpectedDrops(p), t.counted)
}

// Summary bundles one profile with its statistics.
type Summary struct {
	Mode       string          `json:"mode"`
	View       models.View     `json:"view"`
	Profile    *models.Profile `json:"profile"`
	TotalKills int             `json:"totalKills"`
	Luck       stats.Report    `json:"luck"`
}

// Summary returns the profile for mode and view with its luck report.
func (t *Tracker) Summary(mode string, view models.View) *Summary {
	mode = NormalizeMode(mode)
	p := t.store.Profile(mode, view)
	return t.Describe(mode, view, p)
}

// Describe builds a Summary for an arbitrary profile, such as one replayed
// from history.
func (t *Tracker) Describe(mode string, view models.View, p *models.Profile) *Summary {
	return &Summary{
		Mode:       mode,
		View:       view,
		Profile:    p,
		TotalKills: p.TotalKills(),
		Luck:       t.GetLuck(p),
	}
}
