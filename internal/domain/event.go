package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	TypePartida EventType = "partida"
	TypeTorneo  EventType = "torneo"
	TypeSocial  EventType = "social"
)

func (t EventType) Valid() bool {
	return t == TypePartida || t == TypeTorneo || t == TypeSocial
}

type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Event struct {
	ID          uuid.UUID
	OrganizerID uuid.UUID
	Title       string
	Description string
	Location    string
	Type        EventType
	StartsAt    time.Time
	Capacity    int // always >= 1

	Status      EventStatus
	CancelledAt *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewEvent(organizerID uuid.UUID, title, description, location string, typ EventType, startsAt time.Time, capacity int, now time.Time) (*Event, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	location = strings.TrimSpace(location)

	if organizerID == uuid.Nil {
		return nil, fmt.Errorf("%w: organizer_id is required", ErrValidation)
	}
	if title == "" || len(title) > 120 {
		return nil, fmt.Errorf("%w: title is required and must be <= 120 chars", ErrValidation)
	}
	if len(description) > 4000 {
		return nil, fmt.Errorf("%w: description must be <= 4000 chars", ErrValidation)
	}
	if location == "" || len(location) > 200 {
		return nil, fmt.Errorf("%w: location is required and must be <= 200 chars", ErrValidation)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: type must be one of: partida, torneo, social", ErrValidation)
	}
	if startsAt.IsZero() || !startsAt.After(now) {
		return nil, fmt.Errorf("%w: starts_at must be in the future", ErrValidation)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be >= 1", ErrValidation)
	}

	return &Event{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Title:       title,
		Description: description,
		Location:    location,
		Type:        typ,
		StartsAt:    startsAt.UTC(),
		Capacity:    capacity,
		Status:      StatusScheduled,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Closed reports whether the event no longer accepts registrations.
func (e *Event) Closed() bool {
	return e.Status == StatusCancelled || e.Status == StatusCompleted
}

// Status transitions are one-way: scheduled -> ongoing -> completed,
// with cancelled reachable from scheduled or ongoing. Nothing leaves
// cancelled or completed.

func (e *Event) Begin(now time.Time) error {
	if e.Status != StatusScheduled {
		return fmt.Errorf("%w: only scheduled events can begin", ErrEventClosed)
	}
	t := now.UTC()
	e.Status = StatusOngoing
	e.UpdatedAt = t
	return nil
}

func (e *Event) Complete(now time.Time) error {
	if e.Status != StatusScheduled && e.Status != StatusOngoing {
		return fmt.Errorf("%w: only scheduled or ongoing events can complete", ErrEventClosed)
	}
	t := now.UTC()
	e.Status = StatusCompleted
	e.CompletedAt = &t
	e.UpdatedAt = t
	return nil
}

func (e *Event) Cancel(now time.Time) error {
	if e.Closed() {
		return fmt.Errorf("%w: event already closed", ErrEventClosed)
	}
	t := now.UTC()
	e.Status = StatusCancelled
	e.CancelledAt = &t
	e.UpdatedAt = t
	return nil
}
