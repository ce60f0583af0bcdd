package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRow is one unsent lifecycle event claimed from outbox_events.
type EventRow struct {
	ID           string
	GroupOrderID string
	EventType    string
	Payload      []byte
	Attempts     int
}

// Disposition is what happens to a claimed row once the runner is done with it.
// A zero RetryAt marks the row sent.
type Disposition struct {
	RetryAt   time.Time
	LastError string
}

func (d Disposition) sent() bool { return d.RetryAt.IsZero() }

type Queue interface {
	// Drain claims up to limit due rows and records fn's disposition for each
	// in the same transaction.
	Drain(ctx context.Context, limit int, fn func(context.Context, EventRow) Disposition) (int, error)
	Pending(ctx context.Context) (int, error)
}

type PGQueue struct {
	DB *pgxpool.Pool
}

func (q *PGQueue) Drain(ctx context.Context, limit int, fn func(context.Context, EventRow) Disposition) (int, error) {
	tx, err := q.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		select id::text, group_order_id::text, event_type, payload::text, attempts
		from outbox_events
		where sent_at is null and next_attempt_at <= now()
		order by created_at
		limit $1
		for update skip locked
	`, limit)
	if err != nil {
		return 0, err
	}

	var batch []EventRow
	for rows.Next() {
		var (
			e       EventRow
			payload string
		)
		if err := rows.Scan(&e.ID, &e.GroupOrderID, &e.EventType, &payload, &e.Attempts); err != nil {
			rows.Close()
			return 0, err
		}
		e.Payload = []byte(payload)
		batch = append(batch, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, e := range batch {
		d := fn(ctx, e)
		if d.sent() {
			_, err = tx.Exec(ctx, `
				update outbox_events
				set sent_at = now(), last_error = nullif($2, '')
				where id = $1::uuid
			`, e.ID, d.LastError)
		} else {
			_, err = tx.Exec(ctx, `
				update outbox_events
				set attempts = attempts + 1,
				    next_attempt_at = $2,
				    last_error = $3
				where id = $1::uuid
			`, e.ID, d.RetryAt, d.LastError)
		}
		if err != nil {
			return 0, fmt.Errorf("record outbox disposition %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(batch), nil
}

func (q *PGQueue) Pending(ctx context.Context) (int, error) {
	var n int
	err := q.DB.QueryRow(ctx, `select count(*) from outbox_events where sent_at is null`).Scan(&n)
	return n, err
}
