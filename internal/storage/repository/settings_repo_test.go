package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS delve_events (
			id TEXT PRIMARY KEY,
			game_mode TEXT NOT NULL,
			kind TEXT NOT NULL,
			floor TEXT,
			item_id INTEGER,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSettingsRepository_SetAndGet(t *testing.T) {
	repo := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Set(ctx, "game_mode", "HARDCORE"); err != nil {
		t.Fatalf("Failed to set string value: %v", err)
	}

	var mode string
	if err := repo.GetTyped(ctx, "game_mode", &mode); err != nil {
		t.Fatalf("Failed to get string value: %v", err)
	}
	if mode != "HARDCORE" {
		t.Errorf("Expected 'HARDCORE', got '%s'", mode)
	}
}

func TestSettingsRepository_Upsert(t *testing.T) {
	repo := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	_ = repo.Set(ctx, "poll", 1)
	if err := repo.Set(ctx, "poll", 5); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}

	var poll int
	if err := repo.GetTyped(ctx, "poll", &poll); err != nil {
		t.Fatalf("GetTyped failed: %v", err)
	}
	if poll != 5 {
		t.Errorf("Expected 5, got %d", poll)
	}
}

func TestSettingsRepository_RawMessageStoredVerbatim(t *testing.T) {
	repo := NewSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	doc := `{"profiles":{"STANDARD":{"name":"All"}}}`
	if err := repo.Set(ctx, "kill_count_data", json.RawMessage(doc)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := repo.Get(ctx, "kill_count_data")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != doc {
		t.Errorf("Expected %s, got %s", doc, got)
	}
}

func TestSettingsRepository_NotFound(t *testing.T) {
	repo := NewSettingsRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("Expected ErrSettingNotFound, got %v", err)
	}
}
