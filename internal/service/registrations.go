package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
	appCtx "github.com/chemimartinez77/clubdn-sub002/internal/pkg/context"
)

const (
	rkRegistrationCreated        = "registration.created"
	rkRegistrationCancelled      = "registration.cancelled"
	rkRegistrationPromoted       = "registration.promoted"
	rkRegistrationEventCancelled = "registration.event_cancelled"
)

// RegistrationService owns the registration ledger: it is the only
// component that mutates registration status.
type RegistrationService struct {
	store Store
	cache Cache
	clock Clock
}

func NewRegistrationService(store Store, cache Cache, clock Clock) *RegistrationService {
	if clock == nil {
		clock = UTCClock{}
	}
	return &RegistrationService{store: store, cache: cache, clock: clock}
}

// Register joins userID to the event, taking a confirmed seat when one is
// free and the tail of the waitlist otherwise. The count-check-insert runs
// under the event row lock, so concurrent joins can never overshoot the
// capacity.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	// cache fast-fail for events already known to be closed
	if s.cache != nil {
		open, err := s.cache.EventOpen(ctx, eventID)
		if err == nil && !open {
			return nil, domain.ErrEventClosed
		}
	}

	var out *domain.Registration
	err := s.store.WithTx(ctx, func(tx Tx) error {
		ev, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.Closed() {
			return domain.ErrEventClosed
		}
		now := s.clock.Now()
		if !ev.StartsAt.After(now) {
			return domain.ErrEventInPast
		}

		// cancelled is terminal and the (event,user) key is unique, so any
		// existing row blocks re-registration
		if _, err := tx.GetRegistration(ctx, eventID, userID); err == nil {
			return domain.ErrAlreadyRegistered
		} else if !errors.Is(err, domain.ErrNotRegistered) {
			return err
		}

		confirmed, err := tx.CountConfirmed(ctx, eventID)
		if err != nil {
			return err
		}

		status := domain.StatusWaitlist
		if confirmed < ev.Capacity {
			status = domain.StatusConfirmed
		}

		reg := domain.NewRegistration(eventID, userID, status, now)
		if err := tx.InsertRegistration(ctx, reg); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]any{
			"event_id": eventID,
			"user_id":  userID,
			"status":   status,
		})
		if err := tx.InsertOutbox(ctx, OutboxMessage{
			MessageID:  uuid.New(),
			TraceID:    appCtx.GetRequestID(ctx),
			RoutingKey: rkRegistrationCreated,
			Payload:    payload,
		}); err != nil {
			return err
		}

		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Unregister cancels the member's registration. When a confirmed seat is
// freed, the earliest-created waitlisted registration of the event is
// promoted in the same transaction, so a concurrent join can never slip in
// ahead of the waitlist.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		// lock order: event row first, then the registration row
		ev, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		reg, err := tx.GetRegistration(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if reg.Status == domain.StatusRegistrationCancel {
			return domain.ErrAlreadyCancelled
		}
		wasConfirmed := reg.Status == domain.StatusConfirmed

		now := s.clock.Now()
		if err := tx.MarkRegistrationCancelled(ctx, reg.ID, now); err != nil {
			return err
		}

		traceID := appCtx.GetRequestID(ctx)

		if wasConfirmed {
			next, err := tx.FirstWaitlisted(ctx, eventID)
			if err != nil {
				return err
			}
			if next != nil {
				if err := tx.MarkRegistrationConfirmed(ctx, next.ID, now); err != nil {
					return err
				}

				payload, _ := json.Marshal(map[string]any{
					"event_id":    eventID,
					"user_id":     next.UserID,
					"event_title": ev.Title,
				})
				if err := tx.InsertOutbox(ctx, OutboxMessage{
					MessageID:  uuid.New(),
					TraceID:    traceID,
					RoutingKey: rkRegistrationPromoted,
					Payload:    payload,
				}); err != nil {
					return err
				}
			}
		}

		payload, _ := json.Marshal(map[string]any{
			"event_id":    eventID,
			"user_id":     userID,
			"prev_status": reg.Status,
		})
		return tx.InsertOutbox(ctx, OutboxMessage{
			MessageID:  uuid.New(),
			TraceID:    traceID,
			RoutingKey: rkRegistrationCancelled,
			Payload:    payload,
		})
	})
}

// Attendees holds the non-cancelled registrations of an event. Waitlist is
// ordered by join time ascending; it is the queue a member sees to predict
// their position, and it matches the promotion order exactly.
type Attendees struct {
	Confirmed []*domain.Registration
	Waitlist  []*domain.Registration
}

func (s *RegistrationService) ListAttendees(ctx context.Context, eventID uuid.UUID) (Attendees, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return Attendees{}, err
	}
	confirmed, waitlist, err := s.store.ListAttendees(ctx, eventID)
	if err != nil {
		return Attendees{}, err
	}
	return Attendees{Confirmed: confirmed, Waitlist: waitlist}, nil
}

func (s *RegistrationService) ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Registration, error) {
	return s.store.ListByUser(ctx, userID)
}
