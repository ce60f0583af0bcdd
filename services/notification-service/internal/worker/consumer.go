package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
	"smart-international-shipping/shared/pkg/rabbit"
)

var errMalformed = errors.New("malformed lifecycle event")

// Notifier is satisfied by *notify.Bridge.
type Notifier interface {
	Notify(ctx context.Context, receiverID, message string) (*domain.Notification, error)
}

// Dedupe is satisfied by *postgres.ProcessedEvents.
type Dedupe interface {
	Processed(ctx context.Context, eventID string) (bool, error)
	TryMarkProcessed(ctx context.Context, eventID, eventType, groupOrderID string) (bool, error)
}

type Consumer struct {
	Log       zerolog.Logger
	Notifier  Notifier
	Processed Dedupe

	RetryPub *rabbit.Publisher
	DLQPub   *rabbit.Publisher

	Service     string
	MaxAttempts int
	DLQKey      string
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	evt, err := decode(d.Body)
	if err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad event -> dlq")
		_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
		return
	}

	sent, err := c.process(ctx, evt)
	if err != nil {
		c.Log.Error().Err(err).
			Str("event_id", evt.ID).
			Str("type", evt.Type).
			Str("group_order_id", evt.GroupOrderID).
			Msg("notify failed -> retry/dlq")
		if err := rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey); errors.Is(err, rabbit.ErrDeadLettered) {
			c.Log.Warn().Str("event_id", evt.ID).Msg("event dead-lettered")
		}
		return
	}

	_ = d.Ack(false)
	c.Log.Debug().Str("event_id", evt.ID).Str("type", evt.Type).Int("notified", sent).Msg("event handled")
}

func decode(body []byte) (models.Event[models.LifecyclePayload], error) {
	var evt models.Event[models.LifecyclePayload]
	if err := json.Unmarshal(body, &evt); err != nil {
		return evt, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if evt.ID == "" || evt.Type == "" || evt.GroupOrderID == "" {
		return evt, fmt.Errorf("%w: missing id/type/group_order_id", errMalformed)
	}
	return evt, nil
}

// process notifies every recipient and then records the event. A failure part
// way through leaves the event unrecorded, so a redelivery may repeat
// notifications already sent.
func (c *Consumer) process(ctx context.Context, evt models.Event[models.LifecyclePayload]) (int, error) {
	seen, err := c.Processed.Processed(ctx, evt.ID)
	if err != nil {
		return 0, err
	}
	if seen {
		c.Log.Debug().Str("event_id", evt.ID).Msg("duplicate event ignored")
		return 0, nil
	}

	sent := 0
	if msg, ok := message(evt); ok {
		for _, id := range recipients(evt.Payload) {
			if _, err := c.Notifier.Notify(ctx, id, msg); err != nil {
				return sent, fmt.Errorf("notify %s: %w", id, err)
			}
			sent++
		}
	}

	if _, err := c.Processed.TryMarkProcessed(ctx, evt.ID, evt.Type, evt.GroupOrderID); err != nil {
		return sent, err
	}
	return sent, nil
}
