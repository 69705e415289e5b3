package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/speaax/delve-companion/internal/storage/models"
)

// EventFilter narrows a history query. Zero values mean no restriction.
type EventFilter struct {
	GameMode string
	Kinds    []models.EventKind
	Start    time.Time // inclusive
	End      time.Time // exclusive
	Limit    int
}

// EventRepository is the append-only history of ledger events.
type EventRepository interface {
	// Append stores ev, filling in ID and CreatedAt when empty.
	Append(ctx context.Context, ev *models.DelveEvent) error

	// List returns matching events, newest first.
	List(ctx context.Context, filter EventFilter) ([]*models.DelveEvent, error)

	// CountByKind counts matching events per kind. Limit is ignored.
	CountByKind(ctx context.Context, filter EventFilter) (map[models.EventKind]int, error)

	// DeleteBefore removes events created before t and returns how many went.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

type eventRepository struct {
	db DBTX
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, ev *models.DelveEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	var (
		floor  sql.NullString
		itemID sql.NullInt64
	)
	if ev.Floor != nil {
		floor = sql.NullString{String: *ev.Floor, Valid: true}
	}
	if ev.ItemID != nil {
		itemID = sql.NullInt64{Int64: int64(*ev.ItemID), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO delve_events (id, game_mode, kind, floor, item_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.GameMode, string(ev.Kind), floor, itemID, ev.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// where builds the WHERE clause shared by List and CountByKind.
func (f EventFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.GameMode != "" {
		clauses = append(clauses, "game_mode = ?")
		args = append(args, f.GameMode)
	}
	if len(f.Kinds) > 0 {
		placeholders := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		clauses = append(clauses, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}
	if !f.Start.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Start.UTC().UnixMilli())
	}
	if !f.End.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, f.End.UTC().UnixMilli())
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]*models.DelveEvent, error) {
	where, args := filter.where()
	query := "SELECT id, game_mode, kind, floor, item_id, created_at FROM delve_events" +
		where + " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []*models.DelveEvent
	for rows.Next() {
		var (
			ev        models.DelveEvent
			kind      string
			floor     sql.NullString
			itemID    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&ev.ID, &ev.GameMode, &kind, &floor, &itemID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Kind = models.EventKind(kind)
		if floor.Valid {
			f := floor.String
			ev.Floor = &f
		}
		if itemID.Valid {
			id := int(itemID.Int64)
			ev.ItemID = &id
		}
		ev.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) CountByKind(ctx context.Context, filter EventFilter) (map[models.EventKind]int, error) {
	where, args := filter.where()
	rows, err := r.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM delve_events"+where+" GROUP BY kind", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[models.EventKind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[models.EventKind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}
	return counts, nil
}

func (r *eventRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM delve_events WHERE created_at < ?", t.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}
	return n, nil
}
