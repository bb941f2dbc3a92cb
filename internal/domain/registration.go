package domain

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	StatusConfirmed          RegistrationStatus = "confirmed"
	StatusWaitlist           RegistrationStatus = "waitlist"
	StatusRegistrationCancel RegistrationStatus = "cancelled"
)

func (s RegistrationStatus) Valid() bool {
	return s == StatusConfirmed || s == StatusWaitlist || s == StatusRegistrationCancel
}

// Registration is a member's claim on a seat at an event. At most one row
// exists per (event, user); cancelled is terminal, so a member who cancels
// cannot re-register for the same event.
type Registration struct {
	ID      uuid.UUID
	EventID uuid.UUID
	UserID  uuid.UUID
	Status  RegistrationStatus

	// Seq is the insertion sequence assigned by storage. The waitlist is
	// ordered by (CreatedAt, Seq), and promotion always takes the head.
	Seq int64

	CreatedAt time.Time
	UpdatedAt time.Time

	ConfirmedAt *time.Time
	CancelledAt *time.Time
}

func NewRegistration(eventID, userID uuid.UUID, status RegistrationStatus, now time.Time) *Registration {
	t := now.UTC()
	r := &Registration{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Status:    status,
		CreatedAt: t,
		UpdatedAt: t,
	}
	if status == StatusConfirmed {
		r.ConfirmedAt = &t
	}
	return r
}
