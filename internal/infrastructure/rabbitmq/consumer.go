package rabbitmq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
	"github.com/chemimartinez77/clubdn-sub002/internal/pkg/logger"
)

const (
	queueName   = "clubdn.notifications"
	handlerName = "notifications"

	// Every key the outbox publishes must match bindingKey: the worker
	// publishes mandatory, so an unbound key would be returned NO_ROUTE
	// and retried until the row goes dead.
	bindingKey = "registration.*"

	rkCreated        = "registration.created"
	rkCancelled      = "registration.cancelled"
	rkPromoted       = "registration.promoted"
	rkEventCancelled = "registration.event_cancelled"
)

// NotificationStore is the slice of the persistence layer the consumer
// needs. SaveNotificationOnce must write the notification and the
// processed_messages fence in one transaction so duplicate deliveries
// are ignored.
type NotificationStore interface {
	SaveNotificationOnce(ctx context.Context, messageID, handlerName string, n *domain.Notification) (bool, error)
}

type Consumer struct {
	rabbitURL string
	exchange  string
	store     NotificationStore
}

func NewConsumer(rabbitURL, exchange string, store NotificationStore) *Consumer {
	return &Consumer{
		rabbitURL: strings.TrimSpace(rabbitURL),
		exchange:  strings.TrimSpace(exchange),
		store:     store,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	log := logger.Logger.With().Str("component", "rabbitmq_consumer").Logger()

	conn, err := amqp.Dial(c.rabbitURL)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	// Ensure exchange exists (idempotent)
	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.QueueBind(q.Name, bindingKey, c.exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	deliveries, err := ch.Consume(q.Name, "clubdn-notifier", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	go func() {
		defer func() {
			_ = ch.Close()
			_ = conn.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				if err := c.handleDelivery(ctx, d); err != nil {
					_ = d.Nack(false, true) // transient => requeue
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	log.Info().Str("queue", q.Name).Msg("consumer started")
	return nil
}

type registrationPayload struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	EventTitle string `json:"event_title"`
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) error {
	log := logger.Logger.With().
		Str("component", "rabbitmq_consumer").
		Str("routing_key", d.RoutingKey).
		Logger()

	// message_id: prefer AMQP MessageId, else hash fallback
	msgID := strings.TrimSpace(d.MessageId)
	if msgID == "" {
		h := sha256.Sum256(append([]byte(d.RoutingKey+"\n"), d.Body...))
		msgID = "hash:" + hex.EncodeToString(h[:])
	}

	log = log.With().
		Str("message_id", msgID).
		Str("trace_id", strings.TrimSpace(d.CorrelationId)).
		Logger()

	return c.processMessage(ctx, msgID, d.RoutingKey, d.Body, log)
}

// processMessage is the broker-free core of the consumer. Parse failures
// and unknown routing keys drop the message (nil); only storage errors
// surface so the delivery gets requeued.
func (c *Consumer) processMessage(ctx context.Context, msgID, routingKey string, body []byte, log zerolog.Logger) error {
	var kind domain.NotificationKind
	switch routingKey {
	case rkPromoted:
		kind = domain.NotifSeatConfirmed
	case rkEventCancelled:
		kind = domain.NotifEventCancelled
	case rkCreated, rkCancelled:
		// bound so the publisher gets a route, but members don't get a
		// bell entry for their own action
		log.Debug().Msg("no notification for routing key")
		return nil
	default:
		log.Warn().Msg("unknown routing key; ignoring")
		return nil
	}

	var p registrationPayload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Warn().Err(err).Msg("invalid payload json; dropping")
		return nil // poison => drop
	}
	if strings.TrimSpace(p.EventID) == "" || strings.TrimSpace(p.UserID) == "" {
		log.Warn().Msg("missing fields; dropping")
		return nil
	}

	eventID, err := uuid.Parse(p.EventID)
	if err != nil {
		log.Warn().Err(err).Msg("invalid event_id; dropping")
		return nil
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("invalid user_id; dropping")
		return nil
	}

	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		EventID:   eventID,
		Title:     p.EventTitle,
		CreatedAt: time.Now().UTC(),
	}

	saved, err := c.store.SaveNotificationOnce(ctx, msgID, handlerName, n)
	if err != nil {
		log.Error().Err(err).Msg("notification save failed (requeue)")
		return err
	}
	if !saved {
		log.Info().Msg("duplicate delivery ignored")
		return nil
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("kind", string(kind)).
		Msg("notification stored")
	return nil
}
