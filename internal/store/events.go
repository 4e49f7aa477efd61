package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, title, description, date, location, created_at, updated_at`

// eventRepo implements EventRepository.
type eventRepo struct {
	pool PgxPool
}

func (r *eventRepo) Create(ctx context.Context, event Event) (*Event, error) {
	defer observeDB(ctx, "events.create")()

	const q = `INSERT INTO events (title, description, date, location)
VALUES ($1, $2, $3, $4)
RETURNING ` + eventColumns

	created, err := scanEvent(r.pool.QueryRow(ctx, q, event.Title, event.Description, event.Date, event.Location))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

func (r *eventRepo) List(ctx context.Context) ([]Event, error) {
	defer observeDB(ctx, "events.list")()

	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY date DESC, id DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Update applies patch to the row with the given id. An empty patch still
// bumps updated_at so callers can use it to confirm the row exists.
func (r *eventRepo) Update(ctx context.Context, id int64, patch EventPatch) (*Event, error) {
	defer observeDB(ctx, "events.update")()

	const q = `UPDATE events SET
    title = COALESCE($2, title),
    description = COALESCE($3, description),
    date = COALESCE($4, date),
    location = CASE WHEN $5 THEN NULLIF($6, '') ELSE location END,
    updated_at = NOW()
WHERE id=$1
RETURNING ` + eventColumns

	setLocation := patch.Location != nil
	location := ""
	if setLocation {
		location = *patch.Location
	}

	ev, err := scanEvent(r.pool.QueryRow(ctx, q, id, patch.Title, patch.Description, patch.Date, setLocation, location))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update event %d: %w", id, err)
	}
	return ev, nil
}

func (r *eventRepo) Delete(ctx context.Context, id int64) error {
	defer observeDB(ctx, "events.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Location, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return nil, err
	}
	return &ev, nil
}
