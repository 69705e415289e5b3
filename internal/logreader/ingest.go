package logreader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultPetWindow is how long after a floor completion a pet message is
// still attributed to the Delve.
const DefaultPetWindow = 15 * time.Minute

// Sink receives recognized events. *tracker.Tracker implements it.
type Sink interface {
	OnFloorCompleted(ctx context.Context, mode, floorOrPlus string) error
	OnDropObtained(ctx context.Context, mode string, itemID int) error
}

// IngestorConfig configures an Ingestor.
type IngestorConfig struct {
	// GameMode is recorded for every event read from the log.
	GameMode string

	// DedupeSize and DedupeTTL size the replayed line cache.
	DedupeSize int
	DedupeTTL  time.Duration

	// PetWindow limits pet messages to shortly after a floor completion,
	// since the game prints them wherever the pet was rolled. Zero accepts
	// every pet message.
	PetWindow time.Duration

	Logger *slog.Logger
}

// IngestStats counts what an Ingestor has done with the lines it saw.
type IngestStats struct {
	Lines      int `json:"lines"`
	Floors     int `json:"floors"`
	Drops      int `json:"drops"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	Failed     int `json:"failed"`
}

// Ingestor feeds chat log entries into a Sink.
type Ingestor struct {
	sink      Sink
	mode      string
	dedupe    *dedupeCache
	petWindow time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	lastFloor time.Time
	stats     IngestStats
}

// NewIngestor creates an Ingestor writing to sink.
func NewIngestor(sink Sink, cfg IngestorConfig) *Ingestor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		sink:      sink,
		mode:      cfg.GameMode,
		dedupe:    newDedupeCache(cfg.DedupeSize, cfg.DedupeTTL),
		petWindow: cfg.PetWindow,
		logger:    logger.With("component", "logreader"),
		now:       time.Now,
	}
}

// Handle processes one entry. Unrecognized and duplicate lines return nil.
// A line whose event the sink failed to record is not remembered, so a
// re-read can still record it.
func (in *Ingestor) Handle(ctx context.Context, entry *LogEntry) error {
	in.mu.Lock()
	in.stats.Lines++
	if in.dedupe.Contains(entry) {
		in.stats.Duplicates++
		in.mu.Unlock()
		return nil
	}
	in.mu.Unlock()

	if err := in.handle(ctx, entry); err != nil {
		return err
	}
	in.dedupe.Add(entry)
	return nil
}

func (in *Ingestor) handle(ctx context.Context, entry *LogEntry) error {
	ev, ok := Parse(entry.Message)
	if !ok {
		return nil
	}

	switch ev.Kind {
	case FloorCompleted:
		if err := in.sink.OnFloorCompleted(ctx, in.mode, ev.Floor); err != nil {
			in.count(func(s *IngestStats) { s.Failed++ })
			return fmt.Errorf("floor %s: %w", ev.Floor, err)
		}
		in.mu.Lock()
		in.lastFloor = in.now()
		in.stats.Floors++
		in.mu.Unlock()
		in.logger.Debug("floor completed", "mode", in.mode, "floor", ev.Floor)

	case DropObtained:
		if ev.Pet && !in.recentlyInDelve() {
			in.count(func(s *IngestStats) { s.Rejected++ })
			in.logger.Debug("pet message outside delve ignored", "mode", in.mode)
			return nil
		}
		if err := in.sink.OnDropObtained(ctx, in.mode, int(ev.ItemID)); err != nil {
			in.count(func(s *IngestStats) { s.Failed++ })
			return fmt.Errorf("drop %d: %w", ev.ItemID, err)
		}
		in.count(func(s *IngestStats) { s.Drops++ })
		in.logger.Info("unique obtained", "mode", in.mode, "item", int(ev.ItemID))
	}
	return nil
}

func (in *Ingestor) recentlyInDelve() bool {
	if in.petWindow <= 0 {
		return true
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return !in.lastFloor.IsZero() && in.now().Sub(in.lastFloor) <= in.petWindow
}

func (in *Ingestor) count(fn func(*IngestStats)) {
	in.mu.Lock()
	fn(&in.stats)
	in.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (in *Ingestor) Stats() IngestStats {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.stats
}

// Run handles entries until ctx is done or entries is closed. Poller errors
// and sink failures are logged and do not stop the loop.
func (in *Ingestor) Run(ctx context.Context, entries <-chan *LogEntry, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				in.logger.Warn("chat log read failed", "error", err)
			}
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := in.Handle(ctx, entry); err != nil {
				in.logger.Error("failed to record chat event", "mode", in.mode, "error", err)
			}
		}
	}
}
