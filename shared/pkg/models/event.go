package models

import "time"

// Event is the envelope published to grouporders.events. GroupOrderID doubles
// as the routing partition for consumers.
type Event[T any] struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Version      int       `json:"version"`
	Time         time.Time `json:"time"`
	GroupOrderID string    `json:"group_order_id"`
	Payload      T         `json:"payload"`
}
