package postgres

import (
	"context"

	"github.com/chemimartinez77/clubdn-sub002/internal/service"
)

func (t *storeTx) InsertOutbox(ctx context.Context, m service.OutboxMessage) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO outbox (message_id, trace_id, routing_key, payload, occurred_at, status)
		VALUES ($1, $2, $3, $4, NOW(), 'pending')
	`, m.MessageID, m.TraceID, m.RoutingKey, m.Payload)
	return err
}
