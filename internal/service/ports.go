package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

type Clock interface{ Now() time.Time }

// UTCClock is the production clock.
type UTCClock struct{}

func (UTCClock) Now() time.Time { return time.Now().UTC() }

// OutboxMessage is a pending domain event, published asynchronously by the
// outbox worker after the surrounding transaction commits.
type OutboxMessage struct {
	MessageID  uuid.UUID
	TraceID    string
	RoutingKey string
	Payload    []byte
}

// Tx is the per-transaction view of storage. GetEventForUpdate takes a row
// lock on the event, which is the serialization point for everything that
// touches a single event's registrations; rows of different events never
// contend.
type Tx interface {
	GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error

	GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error)
	InsertRegistration(ctx context.Context, r *domain.Registration) error
	MarkRegistrationCancelled(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkRegistrationConfirmed(ctx context.Context, id uuid.UUID, now time.Time) error

	// CountConfirmed derives the occupied seats by counting ledger rows.
	// There is deliberately no cached counter to keep in sync.
	CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error)

	// FirstWaitlisted returns the head of the waitlist, ordered by
	// (created_at, seq) ascending, or nil when the queue is empty.
	FirstWaitlisted(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error)

	// CancelOpenRegistrations cancels every confirmed or waitlisted
	// registration of the event and returns the affected rows.
	CancelOpenRegistrations(ctx context.Context, eventID uuid.UUID, now time.Time) ([]*domain.Registration, error)

	InsertOutbox(ctx context.Context, m OutboxMessage) error
}

type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	CreateEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error)

	ListAttendees(ctx context.Context, eventID uuid.UUID) (confirmed, waitlist []*domain.Registration, err error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Registration, error)

	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notifID uuid.UUID, now time.Time) error
}

type Cache interface {
	// EventOpen reports whether an event is known to accept registrations.
	// Returns domain.ErrCacheMiss for unknown events.
	EventOpen(ctx context.Context, eventID uuid.UUID) (bool, error)
	SetEventOpen(ctx context.Context, eventID uuid.UUID, open bool) error

	AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error)
}
