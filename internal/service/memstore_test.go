package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
	"github.com/chemimartinez77/clubdn-sub002/internal/service"
)

// memStore is an in-memory service.Store used to exercise the registration
// and event workflows without a database. WithTx runs the callback against
// the same state; unit tests here are single-goroutine, the locking
// behavior itself is covered by the postgres integration tests.
type memStore struct {
	events  map[uuid.UUID]*domain.Event
	regs    []*domain.Registration
	notifs  map[uuid.UUID][]*domain.Notification
	outbox  []service.OutboxMessage
	nextSeq int64
}

func newMemStore() *memStore {
	return &memStore{
		events: map[uuid.UUID]*domain.Event{},
		notifs: map[uuid.UUID][]*domain.Notification{},
	}
}

type memTx struct{ s *memStore }

func (s *memStore) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return fn(memTx{s})
}

func (s *memStore) CreateEvent(ctx context.Context, e *domain.Event) error {
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memStore) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range s.events {
		if e.Status == domain.StatusScheduled && e.StartsAt.After(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListAttendees(ctx context.Context, eventID uuid.UUID) (confirmed, waitlist []*domain.Registration, err error) {
	for _, r := range s.sorted(eventID) {
		switch r.Status {
		case domain.StatusConfirmed:
			confirmed = append(confirmed, r)
		case domain.StatusWaitlist:
			waitlist = append(waitlist, r)
		}
	}
	return confirmed, waitlist, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Registration, error) {
	var out []*domain.Registration
	for _, r := range s.regs {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	out := s.notifs[userID]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkNotificationRead(ctx context.Context, userID, notifID uuid.UUID, now time.Time) error {
	for _, n := range s.notifs[userID] {
		if n.ID == notifID {
			t := now.UTC()
			n.ReadAt = &t
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

// sorted returns copies of the event's registrations in (created_at, seq)
// order, the same ordering the SQL layer uses.
func (s *memStore) sorted(eventID uuid.UUID) []*domain.Registration {
	var out []*domain.Registration
	for _, r := range s.regs {
		if r.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func (s *memStore) find(id uuid.UUID) *domain.Registration {
	for _, r := range s.regs {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// --- service.Tx ---

func (t memTx) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	e, ok := t.s.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return e, nil
}

func (t memTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	if _, ok := t.s.events[e.ID]; !ok {
		return domain.ErrEventNotFound
	}
	cp := *e
	t.s.events[e.ID] = &cp
	return nil
}

func (t memTx) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*domain.Registration, error) {
	for _, r := range t.s.regs {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotRegistered
}

func (t memTx) InsertRegistration(ctx context.Context, r *domain.Registration) error {
	t.s.nextSeq++
	r.Seq = t.s.nextSeq
	cp := *r
	t.s.regs = append(t.s.regs, &cp)
	return nil
}

func (t memTx) MarkRegistrationCancelled(ctx context.Context, id uuid.UUID, now time.Time) error {
	r := t.s.find(id)
	if r == nil {
		return domain.ErrNotRegistered
	}
	ts := now.UTC()
	r.Status = domain.StatusRegistrationCancel
	r.CancelledAt = &ts
	r.UpdatedAt = ts
	return nil
}

func (t memTx) MarkRegistrationConfirmed(ctx context.Context, id uuid.UUID, now time.Time) error {
	r := t.s.find(id)
	if r == nil {
		return domain.ErrNotRegistered
	}
	ts := now.UTC()
	r.Status = domain.StatusConfirmed
	r.ConfirmedAt = &ts
	r.UpdatedAt = ts
	return nil
}

func (t memTx) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error) {
	n := 0
	for _, r := range t.s.regs {
		if r.EventID == eventID && r.Status == domain.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (t memTx) FirstWaitlisted(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	for _, r := range t.s.sorted(eventID) {
		if r.Status == domain.StatusWaitlist {
			return r, nil
		}
	}
	return nil, nil
}

func (t memTx) CancelOpenRegistrations(ctx context.Context, eventID uuid.UUID, now time.Time) ([]*domain.Registration, error) {
	var affected []*domain.Registration
	ts := now.UTC()
	for _, r := range t.s.regs {
		if r.EventID == eventID && (r.Status == domain.StatusConfirmed || r.Status == domain.StatusWaitlist) {
			cp := *r
			affected = append(affected, &cp)
			r.Status = domain.StatusRegistrationCancel
			r.CancelledAt = &ts
			r.UpdatedAt = ts
		}
	}
	return affected, nil
}

func (t memTx) InsertOutbox(ctx context.Context, m service.OutboxMessage) error {
	t.s.outbox = append(t.s.outbox, m)
	return nil
}

// fakeClock lets tests pin and advance time.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
