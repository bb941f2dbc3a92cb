package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveNotificationOnce(ctx context.Context, messageID, handler string, n *domain.Notification) (bool, error) {
	args := m.Called(ctx, messageID, handler, n)
	return args.Bool(0), args.Error(1)
}

func loggerStub() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestProcessMessage_Promoted(t *testing.T) {
	store := new(MockStore)
	c := NewConsumer("amqp://", "clubdn.events", store)
	ctx := context.Background()

	eventID := uuid.New()
	userID := uuid.New()
	body, _ := json.Marshal(map[string]any{
		"event_id":    eventID.String(),
		"user_id":     userID.String(),
		"event_title": "Viernes de rol",
	})

	store.On("SaveNotificationOnce", ctx, "msg-1", handlerName,
		mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Kind == domain.NotifSeatConfirmed &&
				n.UserID == userID &&
				n.EventID == eventID &&
				n.Title == "Viernes de rol"
		})).Return(true, nil).Once()

	err := c.processMessage(ctx, "msg-1", rkPromoted, body, loggerStub())
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestProcessMessage_EventCancelled(t *testing.T) {
	store := new(MockStore)
	c := NewConsumer("amqp://", "clubdn.events", store)
	ctx := context.Background()

	eventID := uuid.New()
	userID := uuid.New()
	body, _ := json.Marshal(map[string]any{
		"event_id": eventID.String(),
		"user_id":  userID.String(),
	})

	store.On("SaveNotificationOnce", ctx, "msg-2", handlerName,
		mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Kind == domain.NotifEventCancelled && n.UserID == userID
		})).Return(true, nil).Once()

	err := c.processMessage(ctx, "msg-2", rkEventCancelled, body, loggerStub())
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestProcessMessage_DuplicateIgnored(t *testing.T) {
	store := new(MockStore)
	c := NewConsumer("amqp://", "clubdn.events", store)
	ctx := context.Background()

	body, _ := json.Marshal(map[string]any{
		"event_id": uuid.New().String(),
		"user_id":  uuid.New().String(),
	})

	store.On("SaveNotificationOnce", ctx, "dup-1", handlerName, mock.Anything).
		Return(false, nil).Once()

	err := c.processMessage(ctx, "dup-1", rkPromoted, body, loggerStub())
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestProcessMessage_StoreErrorRequeues(t *testing.T) {
	store := new(MockStore)
	c := NewConsumer("amqp://", "clubdn.events", store)
	ctx := context.Background()

	body, _ := json.Marshal(map[string]any{
		"event_id": uuid.New().String(),
		"user_id":  uuid.New().String(),
	})

	store.On("SaveNotificationOnce", ctx, "err-1", handlerName, mock.Anything).
		Return(false, errors.New("db down")).Once()

	err := c.processMessage(ctx, "err-1", rkPromoted, body, loggerStub())
	require.Error(t, err)
	store.AssertExpectations(t)
}

func TestProcessMessage_PoisonDropped(t *testing.T) {
	store := new(MockStore)
	c := NewConsumer("amqp://", "clubdn.events", store)
	ctx := context.Background()

	// invalid json
	err := c.processMessage(ctx, "p-1", rkPromoted, []byte("{not json"), loggerStub())
	assert.NoError(t, err)

	// missing user_id
	body, _ := json.Marshal(map[string]any{"event_id": uuid.New().String()})
	err = c.processMessage(ctx, "p-2", rkPromoted, body, loggerStub())
	assert.NoError(t, err)

	// malformed ids
	body, _ = json.Marshal(map[string]any{"event_id": "nope", "user_id": "nope"})
	err = c.processMessage(ctx, "p-3", rkPromoted, body, loggerStub())
	assert.NoError(t, err)

	// unknown routing key
	err = c.processMessage(ctx, "p-4", "registration.reopened", nil, loggerStub())
	assert.NoError(t, err)

	store.AssertNotCalled(t, "SaveNotificationOnce")
}

// The queue binds registration.* so every key the outbox publishes has a
// route; created/cancelled deliveries must be acked without producing a
// notification.
func TestProcessMessage_SelfServiceKeysAckedWithoutNotification(t *testing.T) {
	store := new(MockStore)
	c := NewConsumer("amqp://", "clubdn.events", store)
	ctx := context.Background()

	body, _ := json.Marshal(map[string]any{
		"event_id": uuid.New().String(),
		"user_id":  uuid.New().String(),
	})

	for _, rk := range []string{rkCreated, rkCancelled} {
		err := c.processMessage(ctx, "ack-"+rk, rk, body, loggerStub())
		assert.NoError(t, err, rk)
	}

	store.AssertNotCalled(t, "SaveNotificationOnce")
}
