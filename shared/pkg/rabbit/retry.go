package rabbit

import (
	"context"
	"errors"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDeadLettered is returned once a delivery has exhausted its attempts.
var ErrDeadLettered = errors.New("max attempts reached, sent to dlq")

const attemptsHeader = "x-attempts"

// Attempts reads the retry counter carried in delivery headers.
func Attempts(h amqp.Table) int32 {
	if h == nil {
		return 0
	}
	switch t := h[attemptsHeader].(type) {
	case int32:
		return t
	case int64:
		return int32(t)
	case int:
		return int32(t)
	case float64:
		return int32(t)
	}
	return 0
}

// RetryKey prefixes routingKey with the service name once.
func RetryKey(service, routingKey string) string {
	if strings.HasPrefix(routingKey, service+".") {
		return routingKey
	}
	return service + "." + routingKey
}

// RetryOrDLQ republishes the body to the retry exchange under RetryKey with
// attempts+1, or to the DLX once maxAttempts is exceeded. The original is
// acked only after the republish succeeds.
func RetryOrDLQ(ctx context.Context, d amqp.Delivery, service string, maxAttempts int32, retryPub, dlqPub *Publisher, dlqKey string) error {
	attempts := Attempts(d.Headers) + 1

	h := amqp.Table{}
	for k, v := range d.Headers {
		h[k] = v
	}
	h[attemptsHeader] = attempts

	pubCtx, cancel := WithTimeout(ctx)
	defer cancel()

	if attempts <= maxAttempts {
		if err := retryPub.Publish(pubCtx, RetryKey(service, d.RoutingKey), d.Body, h); err != nil {
			_ = d.Nack(false, true)
			return err
		}
		return d.Ack(false)
	}

	if err := dlqPub.Publish(pubCtx, dlqKey, d.Body, h); err != nil {
		_ = d.Nack(false, true)
		return err
	}
	_ = d.Ack(false)
	return ErrDeadLettered
}
