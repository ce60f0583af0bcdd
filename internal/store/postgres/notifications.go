package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"smart-international-shipping/internal/domain"
)

func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	err := s.DB.QueryRow(ctx, `
		insert into notifications(id, receiver_id, message)
		values ($1::uuid, $2::uuid, $3)
		returning created_at
	`, n.ID, n.ReceiverID, n.Message).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, receiverID string) ([]domain.Notification, error) {
	out := make([]domain.Notification, 0)
	if !validID(receiverID) {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
		select id::text, receiver_id::text, message, created_at
		from notifications
		where receiver_id = $1::uuid
		order by seq desc
	`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.ReceiverID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
