package lifecycle

import (
	"context"
	"strings"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
)

type OrderInput struct {
	Name   string
	Weight int
	Price  int
}

// SubmitOrder adds a Pending order to an Open group on behalf of its manager
// or one of its members.
func (s *Service) SubmitOrder(ctx context.Context, actorID, groupID string, in OrderInput) (o *domain.Order, err error) {
	defer func() { observe("submit_order", err) }()

	g, err := s.Store.GetGroupOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsManager(actorID) && !g.IsMember(actorID) {
		return nil, domain.ErrAccessDenied("only members of group order %s can submit orders", g.ID)
	}
	if g.Status != domain.GroupOpen {
		return nil, domain.ErrConflict("group order %s is %s and no longer accepts orders", g.ID, g.Status)
	}

	v := &domain.ValidationError{}
	checkName(v, "name", in.Name)
	checkPositive(v, "weight", in.Weight)
	checkPositive(v, "price", in.Price)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	o = &domain.Order{
		GroupOrderID: g.ID,
		UserID:       actorID,
		Name:         strings.TrimSpace(in.Name),
		Weight:       in.Weight,
		Price:        in.Price,
		Status:       domain.OrderPending,
	}
	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	var recipients []string
	if actorID != g.ManagerID {
		recipients = []string{g.ManagerID}
	}
	s.emit(ctx, models.EventOrderSubmitted, g, models.LifecyclePayload{
		ActorID:    actorID,
		OrderID:    o.ID,
		OrderName:  o.Name,
		Recipients: recipients,
	})
	return o, nil
}

// EditOrder lets the submitter change a Pending order while the group is Open.
func (s *Service) EditOrder(ctx context.Context, actorID, orderID string, p domain.OrderPatch) (o *domain.Order, err error) {
	defer func() { observe("edit_order", err) }()

	o, err = s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actorID {
		return nil, domain.ErrAccessDenied("only the submitter can edit order %s", o.ID)
	}
	if o.Status != domain.OrderPending {
		return nil, domain.ErrConflict("order %s is %s and can no longer be edited", o.ID, o.Status)
	}
	g, err := s.Store.GetGroupOrder(ctx, o.GroupOrderID)
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GroupOpen {
		return nil, domain.ErrConflict("group order %s is %s and no longer accepts changes", g.ID, g.Status)
	}

	v := &domain.ValidationError{}
	if p.Name != nil {
		checkName(v, "name", *p.Name)
		n := strings.TrimSpace(*p.Name)
		p.Name = &n
	}
	if p.Weight != nil {
		checkPositive(v, "weight", *p.Weight)
	}
	if p.Price != nil {
		checkPositive(v, "price", *p.Price)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	o, err = s.Store.UpdateOrder(ctx, o.ID, p)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.EventOrderEdited, g, models.LifecyclePayload{ActorID: actorID, OrderID: o.ID, OrderName: o.Name})
	return o, nil
}

func (s *Service) ApproveOrder(ctx context.Context, actorID, orderID string) (o *domain.Order, err error) {
	defer func() { observe("approve_order", err) }()
	return s.decideOrder(ctx, actorID, orderID, domain.OrderApproved, models.EventOrderApproved)
}

func (s *Service) CancelOrder(ctx context.Context, actorID, orderID string) (o *domain.Order, err error) {
	defer func() { observe("cancel_order", err) }()
	return s.decideOrder(ctx, actorID, orderID, domain.OrderCanceled, models.EventOrderCanceled)
}

// decideOrder moves a Pending order to a terminal status. The store swap only
// succeeds from Pending, so concurrent decisions have a single winner.
func (s *Service) decideOrder(ctx context.Context, actorID, orderID string, to domain.OrderStatus, eventType string) (*domain.Order, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	g, err := s.Store.GetGroupOrder(ctx, o.GroupOrderID)
	if err != nil {
		return nil, err
	}
	if !g.IsManager(actorID) {
		return nil, domain.ErrAccessDenied("only the manager of group order %s can decide orders", g.ID)
	}
	if g.Status != domain.GroupOpen && g.Status != domain.GroupClosed {
		return nil, domain.ErrConflict("group order %s is %s and its orders are final", g.ID, g.Status)
	}
	if o.Status != domain.OrderPending {
		return nil, domain.ErrConflict("order %s is already %s", o.ID, o.Status)
	}

	ok, err := s.Store.SetOrderStatus(ctx, o.ID, domain.OrderPending, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict("order %s was decided concurrently", o.ID)
	}
	o.Status = to
	if fresh, err := s.Store.GetOrder(ctx, o.ID); err == nil {
		o = fresh
	}

	s.emit(ctx, eventType, g, models.LifecyclePayload{
		ActorID:    actorID,
		OrderID:    o.ID,
		OrderName:  o.Name,
		SubjectID:  o.UserID,
		Recipients: []string{o.UserID},
	})
	return o, nil
}
