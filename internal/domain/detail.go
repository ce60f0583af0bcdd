package domain

import "time"

// ManagerView is the minimized manager projection of a detail view.
type ManagerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserView is a member profile without credential material.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func NewUserView(u *User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// OrderView is an order with its submitter embedded as a relation.
type OrderView struct {
	ID           string      `json:"id"`
	GroupOrderID string      `json:"groupOrder_id"`
	UserID       string      `json:"user_id"`
	Name         string      `json:"name"`
	Weight       int         `json:"weight"`
	Price        int         `json:"price"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	User         []UserView  `json:"user"`
}

// GroupOrderDetail is rebuilt per read and never persisted.
type GroupOrderDetail struct {
	ID        string      `json:"id"`
	Manager   ManagerView `json:"manager"`
	Name      string      `json:"name"`
	Country   string      `json:"country"`
	Deadline  *time.Time  `json:"deadline,omitempty"`
	Status    GroupStatus `json:"status"`
	ShipperID *string     `json:"shipper_id,omitempty"`
	Orders    []OrderView `json:"orders"`
	Users     []UserView  `json:"users"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// HasMember reports whether userID is in the resolved member list.
func (d *GroupOrderDetail) HasMember(userID string) bool {
	for _, u := range d.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// RelevantGroupOrders splits a user's group orders by role.
type RelevantGroupOrders struct {
	Managed []GroupOrder `json:"managed"`
	Joined  []GroupOrder `json:"joined"`
}
