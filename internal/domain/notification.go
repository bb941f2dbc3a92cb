package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotifSeatConfirmed  NotificationKind = "seat_confirmed"
	NotifEventCancelled NotificationKind = "event_cancelled"
)

type Notification struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Kind    NotificationKind
	EventID uuid.UUID
	Title   string

	CreatedAt time.Time
	ReadAt    *time.Time
}
