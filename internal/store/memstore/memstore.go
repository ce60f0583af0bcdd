// Package memstore is an in-process domain.Store used by tests and local runs
// without Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smart-international-shipping/internal/domain"
)

var _ domain.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	users         map[string]*domain.User
	groups        map[string]*domain.GroupOrder
	orders        map[string]*domain.Order
	orderSeq      []string
	notifications []domain.Notification

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:  map[string]*domain.User{},
		groups: map[string]*domain.GroupOrder{},
		orders: map[string]*domain.Order{},
		now:    time.Now,
	}
}

func copyGroup(g *domain.GroupOrder) *domain.GroupOrder {
	cp := *g
	cp.UserIDs = append(make([]string, 0, len(g.UserIDs)), g.UserIDs...)
	if g.ShipperID != nil {
		s := *g.ShipperID
		cp.ShipperID = &s
	}
	return &cp
}

func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrConflict("email %s already registered", u.Email)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user %s not found", id)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound("user with email %s not found", email)
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Store) CreateGroupOrder(_ context.Context, g *domain.GroupOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.UserIDs == nil {
		g.UserIDs = []string{}
	}
	now := s.now()
	g.CreatedAt, g.UpdatedAt = now, now
	s.groups[g.ID] = copyGroup(g)
	return nil
}

func (s *Store) GetGroupOrder(_ context.Context, id string) (*domain.GroupOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound("group order %s not found", id)
	}
	return copyGroup(g), nil
}

func (s *Store) list(match func(*domain.GroupOrder) bool) []domain.GroupOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GroupOrder, 0)
	for _, g := range s.groups {
		if match(g) {
			out = append(out, *copyGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListGroupOrders(_ context.Context) ([]domain.GroupOrder, error) {
	return s.list(func(*domain.GroupOrder) bool { return true }), nil
}

func (s *Store) ListGroupOrdersByManager(_ context.Context, managerID string) ([]domain.GroupOrder, error) {
	return s.list(func(g *domain.GroupOrder) bool { return g.ManagerID == managerID }), nil
}

func (s *Store) ListGroupOrdersByMember(_ context.Context, userID string) ([]domain.GroupOrder, error) {
	return s.list(func(g *domain.GroupOrder) bool { return g.IsMember(userID) }), nil
}

func (s *Store) mutateGroup(id string, fn func(g *domain.GroupOrder) bool) (*domain.GroupOrder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, false, domain.ErrNotFound("group order %s not found", id)
	}
	changed := fn(g)
	if changed {
		g.UpdatedAt = s.now()
	}
	return copyGroup(g), changed, nil
}

func (s *Store) UpdateGroupOrder(_ context.Context, id string, p domain.GroupOrderPatch) (*domain.GroupOrder, error) {
	g, changed, err := s.mutateGroup(id, func(g *domain.GroupOrder) bool {
		if g.Status == domain.GroupDisbanded {
			return false
		}
		if p.Name != nil {
			g.Name = *p.Name
		}
		if p.Country != nil {
			g.Country = *p.Country
		}
		if p.Deadline != nil {
			d := *p.Deadline
			g.Deadline = &d
		}
		if p.Status != nil {
			g.Status = *p.Status
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrConflict("group order %s is disbanded", id)
	}
	return g, nil
}

func (s *Store) TransitionGroupOrder(_ context.Context, id string, from []domain.GroupStatus, to domain.GroupStatus, shipperID *string) (*domain.GroupOrder, bool, error) {
	return s.mutateGroup(id, func(g *domain.GroupOrder) bool {
		if shipperID != nil && g.ShipperID != nil {
			return false
		}
		for _, f := range from {
			if g.Status == f {
				g.Status = to
				if shipperID != nil {
					sid := *shipperID
					g.ShipperID = &sid
				}
				return true
			}
		}
		return false
	})
}

func (s *Store) AddMember(_ context.Context, groupID, userID string) (*domain.GroupOrder, error) {
	g, changed, err := s.mutateGroup(groupID, func(g *domain.GroupOrder) bool {
		if g.IsMember(userID) || g.Status != domain.GroupOpen {
			return false
		}
		g.UserIDs = append(g.UserIDs, userID)
		return true
	})
	if err != nil {
		return nil, err
	}
	if !changed && !g.IsMember(userID) {
		return nil, domain.ErrConflict("group order %s is %s and no longer accepts members", g.ID, g.Status)
	}
	return g, nil
}

func (s *Store) RemoveMember(_ context.Context, groupID, userID string) (*domain.GroupOrder, error) {
	g, _, err := s.mutateGroup(groupID, func(g *domain.GroupOrder) bool {
		kept := g.UserIDs[:0]
		for _, id := range g.UserIDs {
			if id != userID {
				kept = append(kept, id)
			}
		}
		changed := len(kept) != len(g.UserIDs)
		g.UserIDs = kept
		return changed
	})
	return g, err
}

func (s *Store) CreateOrder(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[o.GroupOrderID]; !ok {
		return domain.ErrNotFound("group order %s not found", o.GroupOrderID)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	cp := *o
	s.orders[o.ID] = &cp
	s.orderSeq = append(s.orderSeq, o.ID)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound("order %s not found", id)
	}
	cp := *o
	return &cp, nil
}

func (s *Store) ListOrdersByGroup(_ context.Context, groupID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, id := range s.orderSeq {
		if o := s.orders[id]; o.GroupOrderID == groupID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, p domain.OrderPatch) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound("order %s not found", id)
	}
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Weight != nil {
		o.Weight = *p.Weight
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
	o.UpdatedAt = s.now()
	cp := *o
	return &cp, nil
}

func (s *Store) SetOrderStatus(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, domain.ErrNotFound("order %s not found", id)
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) CreateNotification(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = s.now()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, receiverID string) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].ReceiverID == receiverID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

// Seed inserts a group order verbatim, bypassing lifecycle rules. Useful for
// reproducing states the lifecycle refuses to create, such as a manager listed
// as a member.
func (s *Store) Seed(g domain.GroupOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.UserIDs == nil {
		g.UserIDs = []string{}
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
		g.UpdatedAt = g.CreatedAt
	}
	s.groups[g.ID] = copyGroup(&g)
}
