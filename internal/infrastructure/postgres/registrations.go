package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

const registrationColumns = `id, event_id, user_id, status, seq,
       created_at, updated_at, confirmed_at, cancelled_at`

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var r domain.Registration
	var status string
	err := row.Scan(
		&r.ID, &r.EventID, &r.UserID, &status, &r.Seq,
		&r.CreatedAt, &r.UpdatedAt, &r.ConfirmedAt, &r.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.RegistrationStatus(status)
	return &r, nil
}

// ListAttendees returns the non-cancelled registrations of the event,
// partitioned by status. Both partitions come back in (created_at, seq)
// order; for the waitlist this is exactly the promotion order.
func (s *Store) ListAttendees(ctx context.Context, eventID uuid.UUID) (confirmed, waitlist []*domain.Registration, err error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1 AND status IN ('confirmed', 'waitlist')
		ORDER BY created_at ASC, seq ASC
	`, eventID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, nil, err
		}
		switch r.Status {
		case domain.StatusConfirmed:
			confirmed = append(confirmed, r)
		case domain.StatusWaitlist:
			waitlist = append(waitlist, r)
		}
	}
	return confirmed, waitlist, rows.Err()
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Registration, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- service.Tx ---

func (t *storeTx) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1 AND user_id = $2
		FOR UPDATE
	`, eventID, userID)
	r, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotRegistered
	}
	return r, err
}

func (t *storeTx) InsertRegistration(ctx context.Context, r *domain.Registration) error {
	// seq is assigned by the sequence; read it back so the caller sees the
	// final ordering key
	return t.tx.QueryRow(ctx, `
		INSERT INTO registrations (id, event_id, user_id, status, created_at, updated_at, confirmed_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`, r.ID, r.EventID, r.UserID, string(r.Status), r.CreatedAt, r.UpdatedAt, r.ConfirmedAt, r.CancelledAt).Scan(&r.Seq)
}

func (t *storeTx) MarkRegistrationCancelled(ctx context.Context, id uuid.UUID, now time.Time) error {
	ts := now.UTC()
	tag, err := t.tx.Exec(ctx, `
		UPDATE registrations
		SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE id = $1 AND status <> 'cancelled'
	`, id, ts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyCancelled
	}
	return nil
}

func (t *storeTx) MarkRegistrationConfirmed(ctx context.Context, id uuid.UUID, now time.Time) error {
	ts := now.UTC()
	tag, err := t.tx.Exec(ctx, `
		UPDATE registrations
		SET status = 'confirmed', confirmed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'waitlist'
	`, id, ts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

func (t *storeTx) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM registrations
		WHERE event_id = $1 AND status = 'confirmed'
	`, eventID).Scan(&n)
	return n, err
}

func (t *storeTx) FirstWaitlisted(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1 AND status = 'waitlist'
		ORDER BY created_at ASC, seq ASC
		LIMIT 1
		FOR UPDATE
	`, eventID)
	r, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (t *storeTx) CancelOpenRegistrations(ctx context.Context, eventID uuid.UUID, now time.Time) ([]*domain.Registration, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1 AND status IN ('confirmed', 'waitlist')
		ORDER BY created_at ASC, seq ASC
		FOR UPDATE
	`, eventID)
	if err != nil {
		return nil, err
	}

	var affected []*domain.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		affected = append(affected, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(affected) > 0 {
		_, err = t.tx.Exec(ctx, `
			UPDATE registrations
			SET status = 'cancelled', cancelled_at = $2, updated_at = $2
			WHERE event_id = $1 AND status IN ('confirmed', 'waitlist')
		`, eventID, now.UTC())
		if err != nil {
			return nil, err
		}
	}
	return affected, nil
}
