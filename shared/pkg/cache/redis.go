package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	C *redis.Client
}

func New(addr string) *Redis {
	return &Redis{
		C: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.C.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.C.Close()
}

// Publish returns the number of subscribers that received the message.
func (r *Redis) Publish(ctx context.Context, channel, message string) (int64, error) {
	return r.C.Publish(ctx, channel, message).Result()
}

// Subscribe streams payloads published on channel until ctx ends. The returned
// channel is closed once the subscription is torn down.
func (r *Redis) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	ps := r.C.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() { _ = ps.Close() }()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
