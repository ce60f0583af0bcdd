package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"smart-international-shipping/shared/pkg/models"
)

// Outbox records lifecycle events for the outbox-worker to publish.
type Outbox struct {
	DB *pgxpool.Pool
}

func (o *Outbox) Emit(ctx context.Context, evt models.Event[models.LifecyclePayload]) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = o.DB.Exec(ctx, `
		insert into outbox_events(
			id, group_order_id, event_type, payload,
			attempts, next_attempt_at, created_at
		)
		values ($1::uuid, $2::uuid, $3, $4::jsonb, 0, now(), now())
	`, evt.ID, evt.GroupOrderID, evt.Type, string(b))
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// ProcessedEvents dedupes consumed broker deliveries.
type ProcessedEvents struct {
	DB *pgxpool.Pool
}

// Processed reports whether eventID was already handled.
func (r *ProcessedEvents) Processed(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	err := r.DB.QueryRow(ctx, `
		select exists(select 1 from processed_events where event_id = $1::uuid)
	`, eventID).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return seen, nil
}

// TryMarkProcessed records the event and reports true if it had already been
// recorded by an earlier delivery.
func (r *ProcessedEvents) TryMarkProcessed(ctx context.Context, eventID, eventType, groupOrderID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		insert into processed_events(event_id, event_type, group_order_id)
		values ($1::uuid, $2, $3::uuid)
		on conflict (event_id) do nothing
	`, eventID, eventType, groupOrderID)
	if err != nil {
		return false, fmt.Errorf("insert processed event: %w", err)
	}
	return ct.RowsAffected() == 0, nil
}
