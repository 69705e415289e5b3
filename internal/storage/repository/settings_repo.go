package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSettingNotFound is returned by Get for a missing key.
var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository stores JSON values by key.
type SettingsRepository interface {
	// Get retrieves the raw JSON value for key.
	Get(ctx context.Context, key string) (string, error)

	// GetTyped retrieves a setting and unmarshals it to the target type.
	GetTyped(ctx context.Context, key string, target interface{}) error

	// Set stores a setting value. The value is JSON-encoded before storage;
	// json.RawMessage is stored as-is.
	Set(ctx context.Context, key string, value interface{}) error
}

// settingsRepository implements SettingsRepository using SQLite.
type settingsRepository struct {
	db DBTX
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db DBTX) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves a setting value by key.
func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// GetTyped retrieves a setting and unmarshals it to the target type.
func (r *settingsRepository) GetTyped(ctx context.Context, key string, target interface{}) error {
	value, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return fmt.Errorf("failed to unmarshal setting %s: %w", key, err)
	}
	return nil
}

// Set stores a setting value.
func (r *settingsRepository) Set(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(jsonValue), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
