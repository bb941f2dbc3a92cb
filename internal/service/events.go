package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
	appCtx "github.com/chemimartinez77/clubdn-sub002/internal/pkg/context"
	"github.com/chemimartinez77/clubdn-sub002/internal/pkg/logger"
	"github.com/chemimartinez77/clubdn-sub002/internal/security"
)

type EventService struct {
	store Store
	cache Cache
	clock Clock
}

func NewEventService(store Store, cache Cache, clock Clock) *EventService {
	if clock == nil {
		clock = UTCClock{}
	}
	return &EventService{store: store, cache: cache, clock: clock}
}

type CreateEventCmd struct {
	ActorID   uuid.UUID
	ActorRole string

	Title       string
	Description string
	Location    string
	Type        domain.EventType
	StartsAt    time.Time
	Capacity    int
}

func canManage(actorID uuid.UUID, actorRole string, organizerID uuid.UUID) bool {
	if actorRole == security.RoleAdmin {
		return true
	}
	return actorID != uuid.Nil && actorID == organizerID
}

// Create schedules a new event. Any member may open a partida; torneo and
// social events are reserved to admins.
func (s *EventService) Create(ctx context.Context, cmd CreateEventCmd) (*domain.Event, error) {
	if cmd.Type != domain.TypePartida && cmd.ActorRole != security.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	e, err := domain.NewEvent(cmd.ActorID, cmd.Title, cmd.Description, cmd.Location, cmd.Type, cmd.StartsAt, cmd.Capacity, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetEventOpen(ctx, e.ID, true); err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Str("event_id", e.ID.String()).Msg("cache set failed")
		}
	}
	return e, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *EventService) ListUpcoming(ctx context.Context, limit int) ([]*domain.Event, error) {
	return s.store.ListUpcoming(ctx, s.clock.Now(), limit)
}

// Cancel soft-cancels the event and cancels its open registrations in the
// same transaction, queueing one notification per affected member.
func (s *EventService) Cancel(ctx context.Context, eventID, actorID uuid.UUID, actorRole string) (*domain.Event, error) {
	var out *domain.Event

	err := s.store.WithTx(ctx, func(tx Tx) error {
		ev, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !canManage(actorID, actorRole, ev.OrganizerID) {
			return domain.ErrForbidden
		}

		now := s.clock.Now()
		if err := ev.Cancel(now); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, ev); err != nil {
			return err
		}

		affected, err := tx.CancelOpenRegistrations(ctx, eventID, now)
		if err != nil {
			return err
		}

		traceID := appCtx.GetRequestID(ctx)
		for _, reg := range affected {
			payload, _ := json.Marshal(map[string]any{
				"event_id":    eventID,
				"user_id":     reg.UserID,
				"event_title": ev.Title,
				"prev_status": reg.Status,
			})
			if err := tx.InsertOutbox(ctx, OutboxMessage{
				MessageID:  uuid.New(),
				TraceID:    traceID,
				RoutingKey: rkRegistrationEventCancelled,
				Payload:    payload,
			}); err != nil {
				return err
			}
		}

		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	// best-effort, after commit
	if s.cache != nil {
		if err := s.cache.SetEventOpen(ctx, eventID, false); err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Str("event_id", eventID.String()).Msg("cache set failed")
		}
	}
	return out, nil
}

// Begin marks a scheduled event as ongoing.
func (s *EventService) Begin(ctx context.Context, eventID, actorID uuid.UUID, actorRole string) (*domain.Event, error) {
	return s.transition(ctx, eventID, actorID, actorRole, (*domain.Event).Begin, true)
}

// Complete closes the event for good; registrations keep their final state
// as the attendance record.
func (s *EventService) Complete(ctx context.Context, eventID, actorID uuid.UUID, actorRole string) (*domain.Event, error) {
	return s.transition(ctx, eventID, actorID, actorRole, (*domain.Event).Complete, false)
}

func (s *EventService) transition(ctx context.Context, eventID, actorID uuid.UUID, actorRole string, fn func(*domain.Event, time.Time) error, stillOpen bool) (*domain.Event, error) {
	var out *domain.Event

	err := s.store.WithTx(ctx, func(tx Tx) error {
		ev, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !canManage(actorID, actorRole, ev.OrganizerID) {
			return domain.ErrForbidden
		}
		if err := fn(ev, s.clock.Now()); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, ev); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !stillOpen {
		if err := s.cache.SetEventOpen(ctx, eventID, false); err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Str("event_id", eventID.String()).Msg("cache set failed")
		}
	}
	return out, nil
}
