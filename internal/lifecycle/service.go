// Package lifecycle enforces who may do what to a group order, and when.
//
// Every operation loads the records it needs, checks authorization and state,
// and then performs a single conditional store update. Status changes are
// compare-and-swap, so two concurrent approvals of the same order cannot both
// succeed. There are no multi-record transactions.
package lifecycle

import (
	"context"

	"github.com/rs/zerolog"

	"smart-international-shipping/internal/aggregate"
	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, receiverID, message string) (*domain.Notification, error)
}

// EventSink receives an event after each committed mutation.
type EventSink interface {
	Emit(ctx context.Context, evt models.Event[models.LifecyclePayload]) error
}

type Service struct {
	Store    domain.Store
	Engine   *aggregate.Engine
	Notifier Notifier
	Events   EventSink
	Log      zerolog.Logger

	// BaseURL prefixes links placed in invitation messages.
	BaseURL string
}

// emit is best-effort: the mutation is already committed.
func (s *Service) emit(ctx context.Context, eventType string, g *domain.GroupOrder, p models.LifecyclePayload) {
	if s.Events == nil {
		return
	}
	p.GroupName = g.Name
	p.Status = int(g.Status)
	evt := models.NewLifecycleEvent(eventType, g.ID, p)
	if err := s.Events.Emit(ctx, evt); err != nil {
		s.Log.Error().Err(err).
			Str("event_type", eventType).
			Str("group_order_id", g.ID).
			Msg("lifecycle event emit failed")
	}
}

func (s *Service) managedGroup(ctx context.Context, actorID, groupID string) (*domain.GroupOrder, error) {
	g, err := s.Store.GetGroupOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsManager(actorID) {
		return nil, domain.ErrAccessDenied("only the manager can modify group order %s", groupID)
	}
	if g.Status == domain.GroupDisbanded {
		return nil, errDisbanded(g.ID)
	}
	return g, nil
}

func errDisbanded(groupID string) error {
	return domain.ErrConflict("group order %s is disbanded", groupID)
}
