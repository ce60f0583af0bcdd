package lifecycle

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
)

type CreateInput struct {
	Name     string
	Country  string
	Deadline *time.Time
}

// Create opens a new group order with the caller as manager and no members.
func (s *Service) Create(ctx context.Context, managerID string, in CreateInput) (g *domain.GroupOrder, err error) {
	defer func() { observe("create", err) }()

	v := &domain.ValidationError{}
	checkName(v, "name", in.Name)
	if strings.TrimSpace(in.Country) == "" {
		v.Add("country", "is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetUser(ctx, managerID); err != nil {
		return nil, err
	}

	g = &domain.GroupOrder{
		ManagerID: managerID,
		Name:      strings.TrimSpace(in.Name),
		Country:   strings.TrimSpace(in.Country),
		Deadline:  in.Deadline,
		Status:    domain.GroupOpen,
		UserIDs:   []string{},
	}
	if err := s.Store.CreateGroupOrder(ctx, g); err != nil {
		return nil, err
	}
	s.emit(ctx, models.EventGroupCreated, g, models.LifecyclePayload{ActorID: managerID})
	return g, nil
}

// Update applies the manager's edits. Standing and state are checked before
// the patch is validated. A status change must be exactly one forward step;
// disbanding goes through Disband.
func (s *Service) Update(ctx context.Context, actorID, groupID string, p domain.GroupOrderPatch) (g *domain.GroupOrder, err error) {
	defer func() { observe("update", err) }()

	g, err = s.managedGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}

	v := &domain.ValidationError{}
	if p.Name != nil {
		checkName(v, "name", *p.Name)
	}
	if p.Country != nil && strings.TrimSpace(*p.Country) == "" {
		v.Add("country", "is required")
	}
	if p.Status != nil {
		switch {
		case *p.Status == domain.GroupDisbanded:
			v.Add("status", "use disband to disband a group order")
		case !p.Status.Valid():
			v.Add("status", "unknown status")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	statusChanged := false
	if p.Status != nil && *p.Status != g.Status {
		next, ok := g.Status.Next()
		if !ok || next != *p.Status {
			return nil, domain.ErrConflict("group order %s cannot move from %s to %s", g.ID, g.Status, *p.Status)
		}
		moved, ok, err := s.Store.TransitionGroupOrder(ctx, g.ID, []domain.GroupStatus{g.Status}, next, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrConflict("group order %s changed status concurrently", g.ID)
		}
		g = moved
		statusChanged = true
	}

	rest := domain.GroupOrderPatch{Name: p.Name, Country: p.Country, Deadline: p.Deadline}
	if rest.Name != nil || rest.Country != nil || rest.Deadline != nil {
		if rest.Name != nil {
			n := strings.TrimSpace(*rest.Name)
			rest.Name = &n
		}
		if rest.Country != nil {
			c := strings.TrimSpace(*rest.Country)
			rest.Country = &c
		}
		g, err = s.Store.UpdateGroupOrder(ctx, g.ID, rest)
		if err != nil {
			return nil, err
		}
	}

	payload := models.LifecyclePayload{ActorID: actorID}
	if statusChanged {
		payload.Recipients = g.UserIDs
	}
	s.emit(ctx, models.EventGroupUpdated, g, payload)
	return g, nil
}

// Disband ends the group. Only Open or Closed groups can be disbanded, and
// every later mutation on the id is refused.
func (s *Service) Disband(ctx context.Context, actorID, groupID string) (g *domain.GroupOrder, err error) {
	defer func() { observe("disband", err) }()

	g, err = s.managedGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if !g.Status.Disbandable() {
		return nil, domain.ErrConflict("group order %s is %s and can no longer be disbanded", g.ID, g.Status)
	}
	g, ok, err := s.Store.TransitionGroupOrder(ctx, g.ID, []domain.GroupStatus{domain.GroupOpen, domain.GroupClosed}, domain.GroupDisbanded, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict("group order %s is %s and can no longer be disbanded", g.ID, g.Status)
	}
	s.emit(ctx, models.EventGroupDisbanded, g, models.LifecyclePayload{ActorID: actorID, Recipients: g.UserIDs})
	return g, nil
}

// Detail returns the assembled view to the manager, current members and the
// assigned shipper. Shippers may also preview ordered groups still awaiting a
// shipper.
func (s *Service) Detail(ctx context.Context, actor domain.Principal, groupID string) (*domain.GroupOrderDetail, error) {
	d, err := s.Engine.BuildDetail(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if d.Manager.ID == actor.UserID || d.HasMember(actor.UserID) {
		return d, nil
	}
	if actor.Role == domain.RoleShipper && shipperMayRead(d, actor.UserID) {
		return d, nil
	}
	return nil, domain.ErrAccessDenied("user %s may not view group order %s", actor.UserID, groupID)
}

func shipperMayRead(d *domain.GroupOrderDetail, shipperID string) bool {
	if d.ShipperID != nil {
		return *d.ShipperID == shipperID
	}
	return d.Status == domain.GroupOrdered
}

// Listing is what a principal sees on the group-order index: a flat list for
// shippers, managed and joined buckets for everyone else.
type Listing struct {
	All      []domain.GroupOrder
	Relevant *domain.RelevantGroupOrders
}

func (l *Listing) MarshalJSON() ([]byte, error) {
	if l.Relevant != nil {
		return json.Marshal(l.Relevant)
	}
	if l.All == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.All)
}

func (s *Service) List(ctx context.Context, actor domain.Principal) (*Listing, error) {
	if actor.Role == domain.RoleShipper {
		all, err := s.Store.ListGroupOrders(ctx)
		if err != nil {
			return nil, err
		}
		return &Listing{All: all}, nil
	}
	rel, err := s.Engine.ListRelevant(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &Listing{Relevant: rel}, nil
}
