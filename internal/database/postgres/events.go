package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
	"github.com/google/uuid"
)

// EventRepository is the durable log of admitted detection events.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Append writes one admitted event. Events are immutable once written.
func (r *EventRepository) Append(ctx context.Context, event recognition.Event) error {
	var identityID uuid.NullUUID
	if event.IdentityID != nil {
		identityID = uuid.NullUUID{UUID: *event.IdentityID, Valid: true}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, identity_id, identity_name, score, image_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, identityID, event.IdentityName, event.Score, event.ImageRef, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RecentSince returns events admitted at or after since, newest first.
func (r *EventRepository) RecentSince(ctx context.Context, since time.Time) ([]recognition.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, identity_id, identity_name, score, image_ref, created_at
		FROM events
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// RecentForIdentity returns an identity's events admitted at or after since,
// newest first.
func (r *EventRepository) RecentForIdentity(ctx context.Context, identityID uuid.UUID, since time.Time) ([]recognition.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, identity_id, identity_name, score, image_ref, created_at
		FROM events
		WHERE identity_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, identityID, since)
	if err != nil {
		return nil, fmt.Errorf("query identity events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Count returns the total number of persisted events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// scanEvents reads event rows into recognition.Event values.
func scanEvents(rows *sql.Rows) ([]recognition.Event, error) {
	var events []recognition.Event
	for rows.Next() {
		var (
			event      recognition.Event
			identityID uuid.NullUUID
		)
		if err := rows.Scan(&event.ID, &identityID, &event.IdentityName, &event.Score, &event.ImageRef, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if identityID.Valid {
			id := identityID.UUID
			event.IdentityID = &id
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
