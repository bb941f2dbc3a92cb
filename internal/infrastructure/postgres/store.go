package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemimartinez77/clubdn-sub002/internal/service"
)

// Store implements service.Store on a pgx pool.
//
// Deadlock policy: every transaction that touches an event's registrations
// locks in this order:
//  1. events row (FOR UPDATE) — the per-event serialization point
//  2. registrations row(s) for that event (FOR UPDATE)
//
// Register, Unregister and the event-cancel cascade all follow this order,
// so transactions on the same event queue up instead of cycling, and
// transactions on different events never contend.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&storeTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type storeTx struct {
	tx pgx.Tx
}
