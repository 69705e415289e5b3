package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/events"
	"github.com/speaax/delve-companion/internal/logger"
	"github.com/speaax/delve-companion/internal/profiles"
	"github.com/speaax/delve-companion/internal/storage"
	"github.com/speaax/delve-companion/internal/storage/models"
)

type fakeSink struct {
	mu     sync.Mutex
	events []*models.DelveEvent
	err    error
}

func (f *fakeSink) AppendEvent(_ context.Context, ev *models.DelveEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type harness struct {
	tracker   *Tracker
	sink      *fakeSink
	published []events.Event
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{sink: &fakeSink{}}
	d := events.NewEventDispatcher(logger.Discard())
	d.Register(events.NewFuncObserver("test", func(e events.Event) error {
		h.published = append(h.published, e)
		return nil
	}))
	opts = append([]Option{WithHistory(h.sink), WithDispatcher(d), WithLogger(logger.Discard())}, opts...)
	h.tracker = New(profiles.NewStore(nil), nil, opts...)
	return h
}

func TestOnFloorCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.tracker.OnFloorCompleted(ctx, "standard", "4"))
	require.NoError(t, h.tracker.OnFloorCompleted(ctx, "", "8+"))
	require.NoError(t, h.tracker.OnFloorCompleted(ctx, "STANDARD", "9"))

	for _, view := range models.Views() {
		p := h.tracker.GetProfile("STANDARD", view)
		assert.Equal(t, 1, p.LevelKills[4], view.String())
		assert.Equal(t, 2, p.WavesPast8, view.String())
	}

	require.Len(t, h.sink.events, 3)
	assert.Equal(t, "8+", *h.sink.events[1].Floor)
	assert.Equal(t, "STANDARD", h.sink.events[1].GameMode)

	require.Len(t, h.published, 3)
	payload, ok := events.GetTypedData[events.FloorCompletedEvent](h.published[2])
	require.True(t, ok)
	assert.Equal(t, 3, payload.TotalKills)
}

func TestOnFloorCompleted_RejectsInvalidFloors(t *testing.T) {
	h := newHarness(t)
	for _, bad := range []string{"0", "10", "-3", "", "eight", "8++"} {
		err := h.tracker.OnFloorCompleted(context.Background(), "STANDARD", bad)
		assert.ErrorIs(t, err, ErrInvalidFloor, bad)
	}
	assert.Empty(t, h.tracker.Modes())
	assert.Empty(t, h.sink.events)
	assert.Empty(t, h.published)
}

func TestOnDropObtained(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.tracker.OnDropObtained(ctx, "STANDARD", int(droprates.Dom)))
	require.NoError(t, h.tracker.OnDropObtained(ctx, "STANDARD", 424242))

	p := h.tracker.GetProfile("STANDARD", models.ViewSession)
	assert.Equal(t, 1, p.ObtainedCount(int(droprates.Dom)))
	assert.Equal(t, 1, p.ObtainedCount(424242))

	first, ok := events.GetTypedData[events.DropObtainedEvent](h.published[0])
	require.True(t, ok)
	assert.Equal(t, "Dom", first.ItemName)
	second, _ := events.GetTypedData[events.DropObtainedEvent](h.published[1])
	assert.Empty(t, second.ItemName)
}

func TestConcurrentEvents_PayloadsMatchCommits(t *testing.T) {
	const workers = 25

	var (
		mu       sync.Mutex
		kills    []int
		obtained []int
	)
	d := events.NewEventDispatcher(logger.Discard())
	d.Register(events.NewFuncObserver("counts", func(e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		if floor, ok := events.GetTypedData[events.FloorCompletedEvent](e); ok && e.Type == events.TypeFloorCompleted {
			kills = append(kills, floor.TotalKills)
		}
		if drop, ok := events.GetTypedData[events.DropObtainedEvent](e); ok && e.Type == events.TypeDropObtained {
			obtained = append(obtained, drop.Obtained)
		}
		return nil
	}))
	tr := New(profiles.NewStore(nil), nil, WithDispatcher(d), WithLogger(logger.Discard()))

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.OnFloorCompleted(ctx, "STANDARD", "5"))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.OnDropObtained(ctx, "STANDARD", int(droprates.Dom)))
		}()
	}
	wg.Wait()

	want := make([]int, workers)
	for i := range want {
		want[i] = i + 1
	}
	assert.ElementsMatch(t, want, kills, "each completion reports its own running total")
	assert.ElementsMatch(t, want, obtained, "each drop reports its own running count")
}

func TestOnAuthoritativeKillSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.tracker.OnFloorCompleted(ctx, "STANDARD", "3"))
	}
	require.NoError(t, h.tracker.OnAuthoritativeKillSync(ctx, "STANDARD", map[int]int{3: 2}, 7))

	all := h.tracker.GetProfile("STANDARD", models.ViewAll)
	assert.Equal(t, 2, all.LevelKills[3])
	assert.Equal(t, 7, all.WavesPast8)
	assert.Equal(t, 5, h.tracker.GetProfile("STANDARD", models.ViewManual).LevelKills[3])

	assert.Error(t, h.tracker.OnAuthoritativeKillSync(ctx, "STANDARD", map[int]int{3: -1}, 0))
	assert.Error(t, h.tracker.OnAuthoritativeKillSync(ctx, "STANDARD", nil, -1))
	assert.ErrorIs(t, h.tracker.OnAuthoritativeKillSync(ctx, "STANDARD", map[int]int{12: 1}, 0), ErrInvalidFloor)
}

func TestOnAuthoritativeDropSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.tracker.OnDropObtained(ctx, "STANDARD", int(droprates.EyeOfAyak)))
	require.NoError(t, h.tracker.OnAuthoritativeDropSync(ctx, "STANDARD", map[int]int{int(droprates.MokhaiotlCloth): 2}))

	all := h.tracker.GetProfile("STANDARD", models.ViewAll)
	assert.Equal(t, map[int]int{int(droprates.MokhaiotlCloth): 2}, all.ObtainedUniques)

	assert.Error(t, h.tracker.OnAuthoritativeDropSync(ctx, "STANDARD", map[int]int{1: -2}))
}

func TestResetManual(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.tracker.OnFloorCompleted(ctx, "STANDARD", "6"))
	require.NoError(t, h.tracker.ResetManual(ctx, "STANDARD"))

	assert.Zero(t, h.tracker.GetProfile("STANDARD", models.ViewManual).TotalKills())
	assert.Equal(t, 1, h.tracker.GetProfile("STANDARD", models.ViewAll).TotalKills())
	assert.Equal(t, events.TypeManualReset, h.published[len(h.published)-1].Type)
}

func TestHistoryFailureDoesNotFailCaller(t *testing.T) {
	h := newHarness(t)
	h.sink.err = errors.New("db locked")

	require.NoError(t, h.tracker.OnFloorCompleted(context.Background(), "STANDARD", "2"))
	assert.Equal(t, 1, h.tracker.GetProfile("STANDARD", models.ViewAll).LevelKills[2])
	assert.Len(t, h.published, 1)
}

func TestSummary_UsesCountedPredicate(t *testing.T) {
	h := newHarness(t, WithCounted(func(id droprates.ItemID) bool { return id != droprates.Dom }))
	ctx := context.Background()

	require.NoError(t, h.tracker.OnAuthoritativeKillSync(ctx, "STANDARD", map[int]int{8: 630}, 0))
	require.NoError(t, h.tracker.OnDropObtained(ctx, "STANDARD", int(droprates.Dom)))

	s := h.tracker.Summary("STANDARD", models.ViewAll)
	assert.Equal(t, 630, s.TotalKills)
	assert.InDelta(t, 3.0, s.Luck.Any.Expected, 1e-9)
	assert.Equal(t, 0, s.Luck.Any.Actual)

	exp := h.tracker.GetExpectedDrops(s.Profile)
	assert.InDelta(t, 630.0/500, exp.Expected(droprates.Dom), 1e-9)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("manual")
	require.NoError(t, err)
	assert.Equal(t, models.ViewManual, v)

	_, err = ParseView("weekly")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestWithStorage_PersistsAndRestores(t *testing.T) {
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := storage.NewService(db)
	ctx := context.Background()

	tr := New(profiles.NewStore(svc), nil, WithHistory(svc), WithLogger(logger.Discard()))
	require.NoError(t, tr.OnFloorCompleted(ctx, "HARDCORE", "7"))
	require.NoError(t, tr.OnDropObtained(ctx, "HARDCORE", int(droprates.AvernicTreads)))

	restored := profiles.NewStore(svc)
	require.NoError(t, restored.Load(ctx))
	p := restored.Profile("HARDCORE", models.ViewManual)
	assert.Equal(t, 1, p.LevelKills[7])
	assert.Equal(t, 1, p.ObtainedCount(int(droprates.AvernicTreads)))
	assert.Zero(t, restored.Profile("HARDCORE", models.ViewSession).TotalKills())

	history, err := svc.History(ctx, "HARDCORE", "all", 10)
	require.NoError(t, err)
	assert.Len(t, history.Events, 2)
}
