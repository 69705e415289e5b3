package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/stats"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/storage/repository"
)

// Setting keys.
const (
	ProfilesKey        = "kill_count_data"
	HistoryPrunedAtKey = "history_pruned_at"
)

// Service provides the persistence operations the rest of the app needs.
type Service struct {
	db       *DB
	settings repository.SettingsRepository
	events   repository.EventRepository
	now      func() time.Time
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:       db,
		settings: repository.NewSettingsRepository(db.Conn()),
		events:   repository.NewEventRepository(db.Conn()),
		now:      time.Now,
	}
}

// SaveProfiles stores the serialized profile document.
func (s *Service) SaveProfiles(ctx context.Context, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("save profiles: document is not valid JSON")
	}
	return s.settings.Set(ctx, ProfilesKey, json.RawMessage(data))
}

// LoadProfiles returns the stored profile document, or nil when none was saved.
func (s *Service) LoadProfiles(ctx context.Context) ([]byte, error) {
	value, err := s.settings.Get(ctx, ProfilesKey)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// AppendEvent adds one event to the history log.
func (s *Service) AppendEvent(ctx context.Context, ev *models.DelveEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	return s.events.Append(ctx, ev)
}

// History is the event log of one game mode over a period.
type History struct {
	Period string                   `json:"period"`
	Range  stats.TimeRange          `json:"range"`
	Events []*models.DelveEvent     `json:"events"`
	Counts map[models.EventKind]int `json:"counts"`

	// Profile replays the period's floor completions and drops.
	Profile *models.Profile `json:"profile"`
}

// History returns up to limit recent events for mode within period
// (today, week, month or all). The period profile always covers every
// event in the range, regardless of limit.
func (s *Service) History(ctx context.Context, mode, period string, limit int) (*History, error) {
	tr, err := stats.PeriodRange(period, s.now())
	if err != nil {
		return nil, err
	}
	filter := repository.EventFilter{GameMode: mode, Start: tr.Start, End: tr.End}

	counts, err := s.events.CountByKind(ctx, filter)
	if err != nil {
		return nil, err
	}

	replay := filter
	replay.Kinds = []models.EventKind{models.EventFloorCompleted, models.EventDropObtained}
	ledger, err := s.events.List(ctx, replay)
	if err != nil {
		return nil, err
	}

	recent := filter
	recent.Limit = limit
	events, err := s.events.List(ctx, recent)
	if err != nil {
		return nil, err
	}

	return &History{
		Period:  period,
		Range:   tr,
		Events:  events,
		Counts:  counts,
		Profile: replayProfile(period, ledger),
	}, nil
}

// replayProfile rebuilds a profile from floor and drop events.
func replayProfile(name string, events []*models.DelveEvent) *models.Profile {
	p := models.NewProfile(name)
	for _, ev := range events {
		switch ev.Kind {
		case models.EventFloorCompleted:
			if ev.Floor == nil {
				continue
			}
			f, err := droprates.ParseFloor(*ev.Floor)
			if err != nil {
				continue
			}
			if f.IsOverflow() {
				p.AddWave8()
			} else {
				p.AddKills(f.TableIndex(), 1)
			}
		case models.EventDropObtained:
			if ev.ItemID != nil {
				p.AddDrop(*ev.ItemID)
			}
		}
	}
	return p
}

// PruneHistory deletes events older than before and records when it ran.
func (s *Service) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		n, err := repository.NewEventRepository(tx).DeleteBefore(ctx, before)
		if err != nil {
			return err
		}
		deleted = n
		return repository.NewSettingsRepository(tx).Set(ctx, HistoryPrunedAtKey, s.now().UTC())
	})
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return deleted, nil
}

// Settings exposes the settings repository.
func (s *Service) Settings() repository.SettingsRepository {
	return s.settings
}

// DB returns the underlying database.
func (s *Service) DB() *DB {
	return s.db
}

// Close closes the database connection.
func (s *Service) Close() error {
	return s.db.Close()
}
