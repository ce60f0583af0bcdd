package outbox

import (
	"context"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"smart-international-shipping/services/outbox-worker/internal/metrics"
	"smart-international-shipping/shared/pkg/rabbit"
)

const dropReason = "max attempts reached"

// EventPublisher is satisfied by *rabbit.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error
}

// Runner relays committed lifecycle events from the outbox table to the
// grouporders.events exchange, routed by event type.
type Runner struct {
	Log       zerolog.Logger
	Queue     Queue
	EventsPub EventPublisher

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration

	now func() time.Time
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

func (r *Runner) tick(ctx context.Context) error {
	r.refreshPending(ctx)
	_, err := r.Queue.Drain(ctx, r.BatchSize, r.dispatch)
	return err
}

func (r *Runner) dispatch(ctx context.Context, e EventRow) Disposition {
	if e.Attempts >= r.MaxAttempts {
		metrics.OutboxDroppedTotal.Inc()
		r.Log.Warn().Str("id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts).Msg("outbox event dropped, marked sent")
		return Disposition{LastError: dropReason}
	}

	pubCtx, cancel := rabbit.WithTimeout(ctx)
	err := r.EventsPub.Publish(pubCtx, e.EventType, e.Payload, amqp.Table{
		"x-outbox-id":       e.ID,
		"x-group-order-id":  e.GroupOrderID,
		"x-attempts":        int32(0),
		"x-outbox-attempts": int32(e.Attempts),
	})
	cancel()

	if err == nil {
		metrics.OutboxSentTotal.WithLabelValues(e.EventType).Inc()
		return Disposition{}
	}

	metrics.OutboxPublishErrorsTotal.WithLabelValues(e.EventType).Inc()
	next := r.clock().Add(backoff(e.Attempts+1, r.BackoffMax))
	r.Log.Error().Err(err).
		Str("id", e.ID).
		Str("type", e.EventType).
		Int("attempts", e.Attempts+1).
		Time("next", next).
		Msg("publish failed, retry scheduled")
	return Disposition{RetryAt: next, LastError: err.Error()}
}

func (r *Runner) refreshPending(ctx context.Context) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := r.Queue.Pending(ctx2)
	if err != nil {
		r.Log.Debug().Err(err).Msg("count pending outbox events")
		return
	}
	metrics.OutboxPending.Set(float64(n))
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// backoff doubles per attempt, clamped to [1s, max].
func backoff(attempt int, max time.Duration) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if d > max {
		return max
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
