// Package profiles keeps the per game mode ledgers: an all-time and a manual
// profile that are persisted, and a session profile that lives only as long
// as the process.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/storage/models"
)

// Profile display names.
const (
	NameAll     = "All"
	NameManual  = "Manual"
	NameSession = "Session"
)

const manualSuffix = ":MANUAL"

// ErrPersist wraps failures returned by the Persister. The store is left
// unchanged when it is returned.
var ErrPersist = errors.New("persist profiles")

// Persister stores the serialized profile document.
type Persister interface {
	SaveProfiles(ctx context.Context, data []byte) error
	LoadProfiles(ctx context.Context) ([]byte, error)
}

// AllKey returns the persisted key of the all-time profile for mode.
func AllKey(mode string) string {
	return mode
}

// ManualKey returns the persisted key of the manual profile for mode.
func ManualKey(mode string) string {
	return mode + manualSuffix
}

// Store owns every persisted profile plus the session profiles.
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	profiles  map[string]*models.Profile
	sessions  map[string]*models.Profile
	persister Persister
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovery warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns an empty store. A nil persister keeps everything in memory.
func NewStore(persister Persister, opts ...Option) *Store {
	s := &Store{
		profiles:  make(map[string]*models.Profile),
		sessions:  make(map[string]*models.Profile),
		persister: persister,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the persisted profiles with whatever the persister holds.
// Session profiles are untouched. A read failure is returned; a corrupt
// document is not, it just leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.LoadProfiles(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	s.Deserialize(data)
	return nil
}

// target names one profile touched by an update.
type target struct {
	key     string
	name    string
	session bool
}

func fanOutTargets(mode string) []target {
	return []target{
		{key: AllKey(mode), name: NameAll},
		{key: ManualKey(mode), name: NameManual},
		{key: mode, name: NameSession, session: true},
	}
}

// update applies action to clones of the targets, persists the resulting
// document and only then swaps the clones in. Either every target changes
// or none does. The committed profiles come back in target order.
func (s *Store) update(ctx context.Context, targets []target, action func(*models.Profile)) ([]*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make([]*models.Profile, len(targets))
	for i, t := range targets {
		var current *models.Profile
		if t.session {
			current = s.sessions[t.key]
		} else {
			current = s.profiles[t.key]
		}
		if current == nil {
			staged[i] = models.NewProfile(t.name)
		} else {
			staged[i] = current.Clone()
		}
		action(staged[i])
	}

	next := maps.Clone(s.profiles)
	if next == nil {
		next = make(map[string]*models.Profile)
	}
	persisted := false
	for i, t := range targets {
		if !t.session {
			next[t.key] = staged[i]
			persisted = true
		}
	}

	if persisted && s.persister != nil {
		data, err := encode(next)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersist, err)
		}
		if err := s.persister.SaveProfiles(ctx, data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}

	s.profiles = next
	for i, t := range targets {
		if t.session {
			s.sessions[t.key] = staged[i]
		}
	}

	committed := make([]*models.Profile, len(staged))
	for i, p := range staged {
		committed[i] = p.Clone()
	}
	return committed, nil
}

// recordAll runs a fan-out update and returns the committed all-time
// profile.
func (s *Store) recordAll(ctx context.Context, mode string, action func(*models.Profile)) (*models.Profile, error) {
	committed, err := s.update(ctx, fanOutTargets(mode), action)
	if err != nil {
		return nil, err
	}
	return committed[0], nil
}

// RecordFloorCompletion adds one completion of floor to the all, manual and
// session profiles of mode. It returns the all-time profile as committed.
func (s *Store) RecordFloorCompletion(ctx context.Context, mode string, floor droprates.Floor) (*models.Profile, error) {
	if !floor.IsValid() {
		return nil, fmt.Errorf("record floor completion: %w", droprates.ErrInvalidFloor)
	}
	return s.recordAll(ctx, mode, func(p *models.Profile) {
		if floor.IsOverflow() {
			p.AddWave8()
			return
		}
		p.AddKills(floor.TableIndex(), 1)
	})
}

// RecordDrop adds one obtained itemID to the all, manual and session
// profiles of mode. It returns the all-time profile as committed.
func (s *Store) RecordDrop(ctx context.Context, mode string, itemID int) (*models.Profile, error) {
	return s.recordAll(ctx, mode, func(p *models.Profile) {
		p.AddDrop(itemID)
	})
}

// SyncAuthoritative overwrites the all-time kill counts of mode with an
// external snapshot. Manual and session profiles are not touched.
func (s *Store) SyncAuthoritative(ctx context.Context, mode string, levelKills map[int]int, wavesPast8 int) error {
	kills := maps.Clone(levelKills)
	if kills == nil {
		kills = make(map[int]int)
	}
	_, err := s.update(ctx, []target{{key: AllKey(mode), name: NameAll}}, func(p *models.Profile) {
		p.LevelKills = kills
		p.WavesPast8 = wavesPast8
	})
	return err
}

// SyncObtainedDrops overwrites the all-time obtained counts of mode.
func (s *Store) SyncObtainedDrops(ctx context.Context, mode string, counts map[int]int) error {
	obtained := maps.Clone(counts)
	if obtained == nil {
		obtained = make(map[int]int)
	}
	_, err := s.update(ctx, []target{{key: AllKey(mode), name: NameAll}}, func(p *models.Profile) {
		p.ObtainedUniques = obtained
	})
	return err
}

// ResetManual zeroes the manual profile of mode. The key is kept.
func (s *Store) ResetManual(ctx context.Context, mode string) error {
	_, err := s.update(ctx, []target{{key: ManualKey(mode), name: NameManual}}, func(p *models.Profile) {
		p.Reset()
	})
	return err
}

// Profile returns a copy of the requested profile. A profile that has not
// seen any event yet comes back empty.
func (s *Store) Profile(mode string, view models.View) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		p    *models.Profile
		name string
	)
	switch view {
	case models.ViewSession:
		p, name = s.sessions[mode], NameSession
	case models.ViewManual:
		p, name = s.profiles[ManualKey(mode)], NameManual
	default:
		p, name = s.profiles[AllKey(mode)], NameAll
	}
	if p == nil {
		return models.NewProfile(name)
	}
	return p.Clone()
}

// Modes returns every game mode with a persisted or session profile, sorted.
func (s *Store) Modes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for key := range s.profiles {
		seen[strings.TrimSuffix(key, manualSuffix)] = true
	}
	for mode := range s.sessions {
		seen[mode] = true
	}
	out := make([]string, 0, len(seen))
	for mode := range seen {
		out = append(out, mode)
	}
	sort.Strings(out)
	return out
}
