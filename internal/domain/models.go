package domain

import "time"

type Role string

const (
	RoleJoiner  Role = "joiner"
	RoleManager Role = "manager"
	RoleShipper Role = "shipper"
)

func (r Role) Valid() bool {
	switch r {
	case RoleJoiner, RoleManager, RoleShipper:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Federated    bool      `json:"federated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GroupStatus is the group-order lifecycle code. The linear path is
// Open -> Closed -> Ordered -> Shipped; Disbanded is terminal.
type GroupStatus int

const (
	GroupOpen GroupStatus = iota
	GroupClosed
	GroupOrdered
	GroupShipped
	GroupDisbanded
)

func (s GroupStatus) String() string {
	switch s {
	case GroupOpen:
		return "Open"
	case GroupClosed:
		return "Closed"
	case GroupOrdered:
		return "Ordered"
	case GroupShipped:
		return "Shipped"
	case GroupDisbanded:
		return "Disbanded"
	}
	return "Unknown"
}

func (s GroupStatus) Valid() bool { return s >= GroupOpen && s <= GroupDisbanded }

// Next reports the single forward step of the linear machine.
func (s GroupStatus) Next() (GroupStatus, bool) {
	switch s {
	case GroupOpen, GroupClosed, GroupOrdered:
		return s + 1, true
	}
	return s, false
}

// Disbandable reports whether the manager may still disband the group.
func (s GroupStatus) Disbandable() bool { return s == GroupOpen || s == GroupClosed }

type GroupOrder struct {
	ID        string      `json:"id"`
	ManagerID string      `json:"manager_id"`
	Name      string      `json:"name"`
	Country   string      `json:"country"`
	Deadline  *time.Time  `json:"deadline,omitempty"`
	Status    GroupStatus `json:"status"`
	UserIDs   []string    `json:"user_ids"`
	ShipperID *string     `json:"shipper_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (g *GroupOrder) IsManager(userID string) bool { return g.ManagerID == userID }

func (g *GroupOrder) IsMember(userID string) bool {
	for _, id := range g.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// GroupOrderPatch carries the manager-editable fields; nil means unchanged.
type GroupOrderPatch struct {
	Name     *string
	Country  *string
	Deadline *time.Time
	Status   *GroupStatus
}

type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderApproved
	OrderCanceled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderApproved:
		return "Approved"
	case OrderCanceled:
		return "Canceled"
	}
	return "Unknown"
}

// StatusOption is one entry of the status list sent alongside a detail view.
type StatusOption struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// OrderStatusList enumerates order statuses in code order.
func OrderStatusList() []StatusOption {
	out := make([]StatusOption, 0, 3)
	for _, s := range []OrderStatus{OrderPending, OrderApproved, OrderCanceled} {
		out = append(out, StatusOption{Value: int(s), Text: s.String()})
	}
	return out
}

type Order struct {
	ID           string      `json:"id"`
	GroupOrderID string      `json:"groupOrder_id"`
	UserID       string      `json:"user_id"`
	Name         string      `json:"name"`
	Weight       int         `json:"weight"`
	Price        int         `json:"price"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type OrderPatch struct {
	Name   *string
	Weight *int
	Price  *int
}

type Notification struct {
	ID         string    `json:"id"`
	ReceiverID string    `json:"receiver_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
