package domain

import "context"

// UserRepository persists users. Lookups return *NotFoundError when nothing matches.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// GetUsersByIDs omits ids that do not resolve.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*User, error)
}

// GroupOrderRepository persists group orders. Every mutation is a single-record update.
type GroupOrderRepository interface {
	CreateGroupOrder(ctx context.Context, g *GroupOrder) error
	GetGroupOrder(ctx context.Context, id string) (*GroupOrder, error)
	// ListGroupOrders returns every group order, most recently updated first.
	ListGroupOrders(ctx context.Context) ([]GroupOrder, error)
	ListGroupOrdersByManager(ctx context.Context, managerID string) ([]GroupOrder, error)
	ListGroupOrdersByMember(ctx context.Context, userID string) ([]GroupOrder, error)
	// UpdateGroupOrder refuses a disbanded group with *ConflictError.
	UpdateGroupOrder(ctx context.Context, id string, p GroupOrderPatch) (*GroupOrder, error)
	// TransitionGroupOrder moves the group to `to` only while its status is one of `from`.
	// It returns false when the guard did not match. shipperID, when non-nil, is assigned
	// in the same update and the guard additionally requires that no shipper is set yet.
	TransitionGroupOrder(ctx context.Context, id string, from []GroupStatus, to GroupStatus, shipperID *string) (*GroupOrder, bool, error)
	// AddMember appends userID to user_ids unless already present. A group that
	// is no longer Open refuses new members with *ConflictError.
	AddMember(ctx context.Context, groupID, userID string) (*GroupOrder, error)
	RemoveMember(ctx context.Context, groupID, userID string) (*GroupOrder, error)
}

// OrderRepository persists orders. ListOrdersByGroup preserves insertion order.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrdersByGroup(ctx context.Context, groupID string) ([]Order, error)
	UpdateOrder(ctx context.Context, id string, p OrderPatch) (*Order, error)
	// SetOrderStatus is a compare-and-swap on the current status.
	SetOrderStatus(ctx context.Context, id string, from, to OrderStatus) (bool, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, receiverID string) ([]Notification, error)
}

// Store is the full entity store.
type Store interface {
	UserRepository
	GroupOrderRepository
	OrderRepository
	NotificationRepository
}
