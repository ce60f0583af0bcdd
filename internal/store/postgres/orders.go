package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"smart-international-shipping/internal/domain"
)

const orderColumns = `id::text, group_order_id::text, user_id::text, name, weight, price, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status int
	if err := row.Scan(&o.ID, &o.GroupOrderID, &o.UserID, &o.Name, &o.Weight, &o.Price, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	err := s.DB.QueryRow(ctx, `
		insert into orders(id, group_order_id, user_id, name, weight, price, status)
		values ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7)
		returning created_at, updated_at
	`, o.ID, o.GroupOrderID, o.UserID, o.Name, o.Weight, o.Price, int(o.Status)).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound("order %s not found", id)
	}
	o, err := scanOrder(s.DB.QueryRow(ctx, `select `+orderColumns+` from orders where id = $1::uuid`, id))
	if err != nil {
		return nil, notFound(err, "select order", "order %s not found", id)
	}
	return o, nil
}

func (s *Store) ListOrdersByGroup(ctx context.Context, groupID string) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	if !validID(groupID) {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `select `+orderColumns+` from orders where group_order_id = $1::uuid order by seq`, groupID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOrder(ctx context.Context, id string, p domain.OrderPatch) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound("order %s not found", id)
	}
	o, err := scanOrder(s.DB.QueryRow(ctx, `
		update orders
		set name = coalesce($2, name),
		    weight = coalesce($3, weight),
		    price = coalesce($4, price),
		    updated_at = now()
		where id = $1::uuid
		returning `+orderColumns, id, p.Name, p.Weight, p.Price))
	if err != nil {
		return nil, notFound(err, "update order", "order %s not found", id)
	}
	return o, nil
}

func (s *Store) SetOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	if !validID(id) {
		return false, domain.ErrNotFound("order %s not found", id)
	}
	ct, err := s.DB.Exec(ctx, `
		update orders set status = $3, updated_at = now()
		where id = $1::uuid and status = $2
	`, id, int(from), int(to))
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := s.GetOrder(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
