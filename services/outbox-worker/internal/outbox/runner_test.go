package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key     string
	body    string
	headers amqp.Table
}

type fakePublisher struct {
	err  error
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, key string, body []byte, headers amqp.Table) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{key: key, body: string(body), headers: headers})
	return nil
}

type fakeQueue struct {
	rows    []EventRow
	results map[string]Disposition
	pending int
}

func (q *fakeQueue) Drain(ctx context.Context, limit int, fn func(context.Context, EventRow) Disposition) (int, error) {
	if q.results == nil {
		q.results = map[string]Disposition{}
	}
	n := 0
	for _, e := range q.rows {
		if n == limit {
			break
		}
		q.results[e.ID] = fn(ctx, e)
		n++
	}
	return n, nil
}

func (q *fakeQueue) Pending(context.Context) (int, error) { return q.pending, nil }

func newRunner(q Queue, pub EventPublisher) *Runner {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Runner{
		Log:         zerolog.Nop(),
		Queue:       q,
		EventsPub:   pub,
		BatchSize:   2,
		MaxAttempts: 3,
		BackoffMax:  time.Minute,
		now:         func() time.Time { return fixed },
	}
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{10, time.Minute},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, backoff(tc.attempt, time.Minute), "attempt %d", tc.attempt)
	}
}

func TestTickPublishesByEventType(t *testing.T) {
	q := &fakeQueue{rows: []EventRow{
		{ID: "e1", GroupOrderID: "g1", EventType: "orders.approved", Payload: []byte(`{"id":"e1"}`)},
		{ID: "e2", GroupOrderID: "g1", EventType: "grouporders.shipped", Payload: []byte(`{"id":"e2"}`)},
		{ID: "e3", GroupOrderID: "g2", EventType: "orders.submitted", Payload: []byte(`{"id":"e3"}`)},
	}}
	pub := &fakePublisher{}
	r := newRunner(q, pub)

	require.NoError(t, r.tick(context.Background()))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "orders.approved", pub.sent[0].key)
	assert.Equal(t, `{"id":"e1"}`, pub.sent[0].body)
	assert.Equal(t, "g1", pub.sent[0].headers["x-group-order-id"])
	assert.Equal(t, "e1", pub.sent[0].headers["x-outbox-id"])
	assert.Equal(t, "grouporders.shipped", pub.sent[1].key)

	assert.True(t, q.results["e1"].sent())
	assert.True(t, q.results["e2"].sent())
	assert.NotContains(t, q.results, "e3")
}

func TestDispatchSchedulesRetryOnPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	r := newRunner(&fakeQueue{}, pub)

	d := r.dispatch(context.Background(), EventRow{ID: "e1", EventType: "orders.approved", Attempts: 1})

	assert.False(t, d.sent())
	assert.Equal(t, r.now().Add(4*time.Second), d.RetryAt)
	assert.Equal(t, "channel closed", d.LastError)
}

func TestDispatchDropsExhaustedEvents(t *testing.T) {
	pub := &fakePublisher{}
	r := newRunner(&fakeQueue{}, pub)

	d := r.dispatch(context.Background(), EventRow{ID: "e1", EventType: "orders.approved", Attempts: 3})

	assert.True(t, d.sent())
	assert.Equal(t, dropReason, d.LastError)
	assert.Empty(t, pub.sent)
}
