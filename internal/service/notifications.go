package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

type NotificationService struct {
	store Store
	clock Clock
}

func NewNotificationService(store Store, clock Clock) *NotificationService {
	if clock == nil {
		clock = UTCClock{}
	}
	return &NotificationService{store: store, clock: clock}
}

func (s *NotificationService) ListMine(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notifID uuid.UUID) error {
	return s.store.MarkNotificationRead(ctx, userID, notifID, s.clock.Now())
}
