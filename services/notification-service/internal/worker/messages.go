package worker

import (
	"fmt"

	"smart-international-shipping/internal/domain"
	"smart-international-shipping/shared/pkg/models"
)

// message renders the notification text for a lifecycle event. Events that
// are already announced synchronously, or that nobody needs to hear about,
// report false.
func message(evt models.Event[models.LifecyclePayload]) (string, bool) {
	p := evt.Payload
	switch evt.Type {
	case models.EventGroupUpdated:
		return fmt.Sprintf("Group order %s is now %s", p.GroupName, domain.GroupStatus(p.Status)), true
	case models.EventGroupDisbanded:
		return fmt.Sprintf("Group order %s was disbanded", p.GroupName), true
	case models.EventMemberJoined:
		return fmt.Sprintf("A new member joined your group order %s", p.GroupName), true
	case models.EventMemberRemoved:
		return fmt.Sprintf("You were removed from group order %s", p.GroupName), true
	case models.EventShipperAssigned:
		return fmt.Sprintf("A shipper accepted group order %s", p.GroupName), true
	case models.EventGroupShipped:
		return fmt.Sprintf("Group order %s has been shipped", p.GroupName), true
	case models.EventOrderSubmitted:
		return fmt.Sprintf("New order %q was submitted to group order %s", p.OrderName, p.GroupName), true
	case models.EventOrderApproved:
		return fmt.Sprintf("Your order %q in group order %s was approved", p.OrderName, p.GroupName), true
	case models.EventOrderCanceled:
		return fmt.Sprintf("Your order %q in group order %s was canceled", p.OrderName, p.GroupName), true
	}
	return "", false
}

// recipients drops blanks, repeats and the actor.
func recipients(p models.LifecyclePayload) []string {
	seen := make(map[string]struct{}, len(p.Recipients))
	out := make([]string, 0, len(p.Recipients))
	for _, id := range p.Recipients {
		if id == "" || id == p.ActorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
