package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speaax/delve-companion/internal/storage/models"
)

func TestService_ProfilesRoundTrip(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	data, err := svc.LoadProfiles(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	doc := []byte(`{"profiles":{"STANDARD":{"name":"All","levelKills":{"2":3},"wavesPast8":1,"obtainedUniques":{}}}}`)
	require.NoError(t, svc.SaveProfiles(ctx, doc))

	got, err := svc.LoadProfiles(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))

	assert.Error(t, svc.SaveProfiles(ctx, []byte("{broken")))
}

func floorEvent(mode, floor string, at time.Time) *models.DelveEvent {
	return &models.DelveEvent{GameMode: mode, Kind: models.EventFloorCompleted, Floor: &floor, CreatedAt: at}
}

func dropEvent(mode string, item int, at time.Time) *models.DelveEvent {
	return &models.DelveEvent{GameMode: mode, Kind: models.EventDropObtained, ItemID: &item, CreatedAt: at}
}

func TestService_History(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) // Wednesday
	svc.now = func() time.Time { return now }

	events := []*models.DelveEvent{
		floorEvent("STANDARD", "2", now.Add(-time.Hour)),
		floorEvent("STANDARD", "8+", now.Add(-2*time.Hour)),
		floorEvent("STANDARD", "8+", now.AddDate(0, 0, -1)),
		dropEvent("STANDARD", 31130, now.Add(-30*time.Minute)),
		floorEvent("STANDARD", "5", now.AddDate(0, 0, -20)),
		floorEvent("HARDCORE", "3", now.Add(-time.Hour)),
		{GameMode: "STANDARD", Kind: models.EventManualReset, CreatedAt: now.Add(-10 * time.Minute)},
	}
	for _, ev := range events {
		require.NoError(t, svc.AppendEvent(ctx, ev))
	}

	today, err := svc.History(ctx, "STANDARD", "today", 2)
	require.NoError(t, err)
	assert.Len(t, today.Events, 2)
	assert.Equal(t, 2, today.Counts[models.EventFloorCompleted])
	assert.Equal(t, 1, today.Counts[models.EventManualReset])
	assert.Equal(t, 1, today.Profile.LevelKills[2])
	assert.Equal(t, 1, today.Profile.WavesPast8)
	assert.Equal(t, 1, today.Profile.ObtainedCount(31130))

	week, err := svc.History(ctx, "STANDARD", "week", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, week.Profile.WavesPast8)
	assert.Zero(t, week.Profile.LevelKills[5])

	all, err := svc.History(ctx, "STANDARD", "all", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Profile.LevelKills[5])
	assert.Len(t, all.Events, 6)

	_, err = svc.History(ctx, "STANDARD", "fortnight", 0)
	assert.Error(t, err)
}

func TestService_PruneHistory(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.AppendEvent(ctx, floorEvent("STANDARD", "2", now.AddDate(0, -6, 0))))
	require.NoError(t, svc.AppendEvent(ctx, floorEvent("STANDARD", "2", now)))

	n, err := svc.PruneHistory(ctx, now.AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var prunedAt time.Time
	require.NoError(t, svc.Settings().GetTyped(ctx, HistoryPrunedAtKey, &prunedAt))
	assert.True(t, prunedAt.Equal(now))
}
