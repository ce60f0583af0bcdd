package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"smart-international-shipping/internal/domain"
)

const groupColumns = `id::text, manager_id::text, name, country, deadline, status,
	user_ids::text[], shipper_id::text, created_at, updated_at`

func scanGroup(row pgx.Row) (*domain.GroupOrder, error) {
	var g domain.GroupOrder
	var status int
	if err := row.Scan(&g.ID, &g.ManagerID, &g.Name, &g.Country, &g.Deadline, &status,
		&g.UserIDs, &g.ShipperID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Status = domain.GroupStatus(status)
	if g.UserIDs == nil {
		g.UserIDs = []string{}
	}
	return &g, nil
}

func (s *Store) listGroups(ctx context.Context, where string, args ...any) ([]domain.GroupOrder, error) {
	rows, err := s.DB.Query(ctx, `select `+groupColumns+` from group_orders `+where+` order by updated_at desc, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select group orders: %w", err)
	}
	defer rows.Close()
	out := make([]domain.GroupOrder, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group order: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *Store) CreateGroupOrder(ctx context.Context, g *domain.GroupOrder) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.UserIDs == nil {
		g.UserIDs = []string{}
	}
	err := s.DB.QueryRow(ctx, `
		insert into group_orders(id, manager_id, name, country, deadline, status, user_ids)
		values ($1::uuid, $2::uuid, $3, $4, $5, $6, $7::uuid[])
		returning created_at, updated_at
	`, g.ID, g.ManagerID, g.Name, g.Country, g.Deadline, int(g.Status), g.UserIDs).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group order: %w", err)
	}
	return nil
}

func (s *Store) GetGroupOrder(ctx context.Context, id string) (*domain.GroupOrder, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound("group order %s not found", id)
	}
	g, err := scanGroup(s.DB.QueryRow(ctx, `select `+groupColumns+` from group_orders where id = $1::uuid`, id))
	if err != nil {
		return nil, notFound(err, "select group order", "group order %s not found", id)
	}
	return g, nil
}

func (s *Store) ListGroupOrders(ctx context.Context) ([]domain.GroupOrder, error) {
	return s.listGroups(ctx, "")
}

func (s *Store) ListGroupOrdersByManager(ctx context.Context, managerID string) ([]domain.GroupOrder, error) {
	if !validID(managerID) {
		return []domain.GroupOrder{}, nil
	}
	return s.listGroups(ctx, `where manager_id = $1::uuid`, managerID)
}

func (s *Store) ListGroupOrdersByMember(ctx context.Context, userID string) ([]domain.GroupOrder, error) {
	if !validID(userID) {
		return []domain.GroupOrder{}, nil
	}
	return s.listGroups(ctx, `where $1::uuid = any(user_ids)`, userID)
}

func (s *Store) UpdateGroupOrder(ctx context.Context, id string, p domain.GroupOrderPatch) (*domain.GroupOrder, error) {
	var status *int
	if p.Status != nil {
		v := int(*p.Status)
		status = &v
	}
	g, changed, err := s.conditional(ctx, id, `
		update group_orders
		set name = coalesce($2, name),
		    country = coalesce($3, country),
		    deadline = coalesce($4, deadline),
		    status = coalesce($5, status),
		    updated_at = now()
		where id = $1::uuid and status <> $6
		returning `+groupColumns, id, p.Name, p.Country, p.Deadline, status, int(domain.GroupDisbanded))
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrConflict("group order %s is disbanded", id)
	}
	return g, nil
}

// conditional runs a guarded single-row update. When the guard rejects the
// row, the current state is returned with changed=false.
func (s *Store) conditional(ctx context.Context, id, sql string, args ...any) (*domain.GroupOrder, bool, error) {
	if !validID(id) {
		return nil, false, domain.ErrNotFound("group order %s not found", id)
	}
	g, err := scanGroup(s.DB.QueryRow(ctx, sql, args...))
	if err == nil {
		return g, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("update group order: %w", err)
	}
	g, err = s.GetGroupOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return g, false, nil
}

func (s *Store) TransitionGroupOrder(ctx context.Context, id string, from []domain.GroupStatus, to domain.GroupStatus, shipperID *string) (*domain.GroupOrder, bool, error) {
	codes := make([]int32, 0, len(from))
	for _, f := range from {
		codes = append(codes, int32(f))
	}
	return s.conditional(ctx, id, `
		update group_orders
		set status = $3,
		    shipper_id = coalesce($4::uuid, shipper_id),
		    updated_at = now()
		where id = $1::uuid and status = any($2::int[])
		  and ($4::uuid is null or shipper_id is null)
		returning `+groupColumns, id, codes, int(to), shipperID)
}

func (s *Store) AddMember(ctx context.Context, groupID, userID string) (*domain.GroupOrder, error) {
	if !validID(userID) {
		return nil, domain.ErrNotFound("user %s not found", userID)
	}
	g, changed, err := s.conditional(ctx, groupID, `
		update group_orders
		set user_ids = array_append(user_ids, $2::uuid),
		    updated_at = now()
		where id = $1::uuid and status = $3 and not ($2::uuid = any(user_ids))
		returning `+groupColumns, groupID, userID, int(domain.GroupOpen))
	if err != nil {
		return nil, err
	}
	if !changed && !g.IsMember(userID) {
		return nil, domain.ErrConflict("group order %s is %s and no longer accepts members", g.ID, g.Status)
	}
	return g, nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) (*domain.GroupOrder, error) {
	if !validID(userID) {
		return s.GetGroupOrder(ctx, groupID)
	}
	g, _, err := s.conditional(ctx, groupID, `
		update group_orders
		set user_ids = array_remove(user_ids, $2::uuid),
		    updated_at = now()
		where id = $1::uuid and $2::uuid = any(user_ids)
		returning `+groupColumns, groupID, userID)
	return g, err
}
