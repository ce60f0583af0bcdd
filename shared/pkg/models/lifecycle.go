package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventGroupCreated    = "grouporders.created"
	EventGroupUpdated    = "grouporders.updated"
	EventGroupDisbanded  = "grouporders.disbanded"
	EventMemberInvited   = "grouporders.member_invited"
	EventMemberJoined    = "grouporders.member_joined"
	EventMemberRemoved   = "grouporders.member_removed"
	EventShipperAssigned = "grouporders.shipper_assigned"
	EventGroupShipped    = "grouporders.shipped"

	EventOrderSubmitted = "orders.submitted"
	EventOrderEdited    = "orders.edited"
	EventOrderApproved  = "orders.approved"
	EventOrderCanceled  = "orders.canceled"
)

// LifecyclePayload describes one committed lifecycle mutation. Recipients are
// the users a downstream notifier should inform; it may be empty.
type LifecyclePayload struct {
	ActorID    string   `json:"actor_id"`
	GroupName  string   `json:"group_name"`
	Status     int      `json:"status"`
	OrderID    string   `json:"order_id,omitempty"`
	OrderName  string   `json:"order_name,omitempty"`
	SubjectID  string   `json:"subject_id,omitempty"`
	Recipients []string `json:"recipients"`
}

func NewLifecycleEvent(eventType, groupOrderID string, p LifecyclePayload) Event[LifecyclePayload] {
	if p.Recipients == nil {
		p.Recipients = []string{}
	}
	return Event[LifecyclePayload]{
		ID:           uuid.NewString(),
		Type:         eventType,
		Version:      1,
		Time:         time.Now().UTC(),
		GroupOrderID: groupOrderID,
		Payload:      p,
	}
}
