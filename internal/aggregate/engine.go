// Package aggregate assembles group-order detail views from the entity store.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"smart-international-shipping/internal/domain"
)

// Reader is the slice of the store the engine reads from.
type Reader interface {
	GetGroupOrder(ctx context.Context, id string) (*domain.GroupOrder, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	ListOrdersByGroup(ctx context.Context, groupID string) ([]domain.Order, error)
	ListGroupOrdersByManager(ctx context.Context, managerID string) ([]domain.GroupOrder, error)
	ListGroupOrdersByMember(ctx context.Context, userID string) ([]domain.GroupOrder, error)
}

type Engine struct {
	Store Reader
}

// BuildDetail loads a group order with its manager, members and orders.
// Members and submitters that no longer resolve are left out; a missing
// manager makes the whole group unreadable.
func (e *Engine) BuildDetail(ctx context.Context, groupOrderID string) (*domain.GroupOrderDetail, error) {
	g, err := e.Store.GetGroupOrder(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}

	var (
		manager *domain.User
		members map[string]*domain.User
		orders  []domain.Order
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		u, err := e.Store.GetUser(egCtx, g.ManagerID)
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.ErrNotFound("manager of group order %s not found", g.ID)
		}
		manager = u
		return err
	})
	eg.Go(func() error {
		var err error
		members, err = e.Store.GetUsersByIDs(egCtx, g.UserIDs)
		return err
	})
	eg.Go(func() error {
		var err error
		orders, err = e.Store.ListOrdersByGroup(egCtx, g.ID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	submitters, err := e.resolveSubmitters(ctx, orders, manager, members)
	if err != nil {
		return nil, err
	}

	d := &domain.GroupOrderDetail{
		ID:        g.ID,
		Manager:   domain.ManagerView{ID: manager.ID, Name: manager.Name, Email: manager.Email},
		Name:      g.Name,
		Country:   g.Country,
		Deadline:  g.Deadline,
		Status:    g.Status,
		ShipperID: g.ShipperID,
		Orders:    make([]domain.OrderView, 0, len(orders)),
		Users:     make([]domain.UserView, 0, len(g.UserIDs)),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	for _, o := range orders {
		ov := domain.OrderView{
			ID:           o.ID,
			GroupOrderID: o.GroupOrderID,
			UserID:       o.UserID,
			Name:         o.Name,
			Weight:       o.Weight,
			Price:        o.Price,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
			UpdatedAt:    o.UpdatedAt,
			User:         []domain.UserView{},
		}
		if u, ok := submitters[o.UserID]; ok {
			ov.User = append(ov.User, domain.NewUserView(u))
		}
		d.Orders = append(d.Orders, ov)
	}
	for _, id := range g.UserIDs {
		if u, ok := members[id]; ok {
			d.Users = append(d.Users, domain.NewUserView(u))
		}
	}
	return d, nil
}

// resolveSubmitters maps order user ids to users, reusing already loaded
// profiles and fetching the rest in one batch.
func (e *Engine) resolveSubmitters(ctx context.Context, orders []domain.Order, manager *domain.User, members map[string]*domain.User) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(members)+1)
	out[manager.ID] = manager
	for id, u := range members {
		out[id] = u
	}

	var missing []string
	seen := map[string]bool{}
	for _, o := range orders {
		if _, ok := out[o.UserID]; ok || seen[o.UserID] {
			continue
		}
		seen[o.UserID] = true
		missing = append(missing, o.UserID)
	}
	if len(missing) == 0 {
		return out, nil
	}
	extra, err := e.Store.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("resolve submitters: %w", err)
	}
	for id, u := range extra {
		out[id] = u
	}
	return out, nil
}

// ListRelevant splits the user's group orders into the ones they manage and
// the ones they joined. A group never appears in both buckets.
func (e *Engine) ListRelevant(ctx context.Context, userID string) (*domain.RelevantGroupOrders, error) {
	var managed, joined []domain.GroupOrder
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		managed, err = e.Store.ListGroupOrdersByManager(egCtx, userID)
		return err
	})
	eg.Go(func() error {
		var err error
		joined, err = e.Store.ListGroupOrdersByMember(egCtx, userID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &domain.RelevantGroupOrders{
		Managed: make([]domain.GroupOrder, 0, len(managed)),
		Joined:  make([]domain.GroupOrder, 0, len(joined)),
	}
	out.Managed = append(out.Managed, managed...)
	for _, g := range joined {
		if g.ManagerID != userID {
			out.Joined = append(out.Joined, g)
		}
	}
	return out, nil
}
