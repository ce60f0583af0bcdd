// Package notify persists user notifications and pushes them to live clients.
package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"smart-international-shipping/internal/domain"
)

var pushTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "notification_push_total", Help: "Notification push attempts by result"},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(pushTotal)
}

type Bridge struct {
	Store  domain.NotificationRepository
	Pusher Pusher
	Log    zerolog.Logger
}

// Notify stores the notification and then tries a live push. Only the store
// write can fail the call.
func (b *Bridge) Notify(ctx context.Context, receiverID, message string) (*domain.Notification, error) {
	n := &domain.Notification{ReceiverID: receiverID, Message: message}
	if err := b.Store.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	if b.Pusher == nil {
		return n, nil
	}

	delivered, err := b.Pusher.Push(ctx, *n)
	switch {
	case err != nil:
		pushTotal.WithLabelValues("failed").Inc()
		b.Log.Warn().Err(err).Str("receiver_id", receiverID).Str("notification_id", n.ID).Msg("notification push failed")
	case !delivered:
		pushTotal.WithLabelValues("offline").Inc()
		b.Log.Debug().Str("receiver_id", receiverID).Msg("receiver offline, notification stored only")
	default:
		pushTotal.WithLabelValues("delivered").Inc()
	}
	return n, nil
}
