package lifecycle

import (
	"context"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
)

// AcceptShipment assigns the calling shipper to an Ordered group that has no
// shipper yet. The assignment is conditional, so only one shipper wins.
func (s *Service) AcceptShipment(ctx context.Context, actor domain.Principal, groupID string) (g *domain.GroupOrder, err error) {
	defer func() { observe("accept_shipment", err) }()

	if actor.Role != domain.RoleShipper {
		return nil, domain.ErrAccessDenied("only shippers can accept shipments")
	}
	g, err = s.Store.GetGroupOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GroupOrdered || g.ShipperID != nil {
		return nil, domain.ErrConflict("group order %s is not awaiting a shipper", g.ID)
	}

	shipperID := actor.UserID
	g, ok, err := s.Store.TransitionGroupOrder(ctx, g.ID, []domain.GroupStatus{domain.GroupOrdered}, domain.GroupOrdered, &shipperID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict("group order %s is not awaiting a shipper", g.ID)
	}
	s.emit(ctx, models.EventShipperAssigned, g, models.LifecyclePayload{
		ActorID:    actor.UserID,
		SubjectID:  actor.UserID,
		Recipients: []string{g.ManagerID},
	})
	return g, nil
}

// CompleteShipment marks the group Shipped. Only the assigned shipper may.
func (s *Service) CompleteShipment(ctx context.Context, actor domain.Principal, groupID string) (g *domain.GroupOrder, err error) {
	defer func() { observe("complete_shipment", err) }()

	g, err = s.Store.GetGroupOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.ShipperID == nil || *g.ShipperID != actor.UserID {
		return nil, domain.ErrAccessDenied("only the assigned shipper can complete group order %s", g.ID)
	}
	g, ok, err := s.Store.TransitionGroupOrder(ctx, g.ID, []domain.GroupStatus{domain.GroupOrdered}, domain.GroupShipped, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict("group order %s is %s, not Ordered", g.ID, g.Status)
	}
	recipients := append([]string{g.ManagerID}, g.UserIDs...)
	s.emit(ctx, models.EventGroupShipped, g, models.LifecyclePayload{ActorID: actor.UserID, Recipients: recipients})
	return g, nil
}
