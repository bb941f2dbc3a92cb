package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

const eventColumns = `id, organizer_id, title, description, location, type,
       starts_at, capacity, status, cancelled_at, completed_at,
       created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var typ, status string
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location, &typ,
		&e.StartsAt, &e.Capacity, &status, &e.CancelledAt, &e.CompletedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Type = domain.EventType(typ)
	e.Status = domain.EventStatus(status)
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *domain.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (
			id, organizer_id, title, description, location, type,
			starts_at, capacity, status, cancelled_at, completed_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		e.ID, e.OrganizerID, e.Title, e.Description, e.Location, string(e.Type),
		e.StartsAt, e.Capacity, string(e.Status), e.CancelledAt, e.CompletedAt,
		e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	return e, err
}

func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status = 'scheduled' AND starts_at > $1
		ORDER BY starts_at ASC, id ASC
		LIMIT $2
	`, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- service.Tx ---

func (t *storeTx) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	return e, err
}

func (t *storeTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE events SET
			title=$2, description=$3, location=$4, type=$5,
			starts_at=$6, capacity=$7, status=$8,
			cancelled_at=$9, completed_at=$10, updated_at=$11
		WHERE id=$1
	`,
		e.ID,
		e.Title, e.Description, e.Location, string(e.Type),
		e.StartsAt, e.Capacity, string(e.Status),
		e.CancelledAt, e.CompletedAt, e.UpdatedAt,
	)
	return err
}
