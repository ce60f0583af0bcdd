//go:generate mockgen -source ./pusher.go -destination=./mocks/pusher.go -package=mocks
package notify

import (
	"context"
	"encoding/json"

	"smart-international-shipping/internal/domain"
)

// Pusher delivers a notification to a connected receiver. delivered is false
// when nobody is listening.
type Pusher interface {
	Push(ctx context.Context, n domain.Notification) (delivered bool, err error)
}

// Publisher is satisfied by *cache.Redis.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) (int64, error)
}

// RedisPusher publishes on a per-receiver channel that the notification
// stream endpoint subscribes to.
type RedisPusher struct {
	Redis Publisher
}

func Channel(receiverID string) string { return "notifications:" + receiverID }

func (p *RedisPusher) Push(ctx context.Context, n domain.Notification) (bool, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return false, err
	}
	receivers, err := p.Redis.Publish(ctx, Channel(n.ReceiverID), string(b))
	if err != nil {
		return false, err
	}
	return receivers > 0, nil
}
