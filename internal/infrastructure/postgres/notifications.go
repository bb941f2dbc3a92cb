package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, kind, event_id, title, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.EventID, &n.Title, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		n.Kind = domain.NotificationKind(kind)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, notifID uuid.UUID, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
	`, notifID, userID, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// SaveNotificationOnce writes a notification guarded by the
// processed_messages idempotency fence, so redelivered broker messages
// never produce duplicate bell entries.
//
//	ok=true  -> first delivery, notification stored
//	ok=false -> duplicate delivery, nothing written
func (s *Store) SaveNotificationOnce(ctx context.Context, messageID, handlerName string, n *domain.Notification) (ok bool, err error) {
	messageID = strings.TrimSpace(messageID)
	if handlerName == "" {
		handlerName = "unknown"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Without a message id we cannot dedupe safely; store best effort.
	if messageID != "" {
		tag, err := tx.Exec(ctx, `
			INSERT INTO processed_messages (message_id, handler_name)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, messageID, handlerName)
		if err != nil {
			return false, err
		}
		if tag.RowsAffected() == 0 {
			return false, nil
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, event_id, title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.UserID, string(n.Kind), n.EventID, n.Title, n.CreatedAt)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
