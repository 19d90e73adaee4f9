package models

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidStateTransition is returned when an order status change is not
// allowed by the state machine.
var ErrInvalidStateTransition = errors.New("invalid order state transition")

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows moving to the given
// status.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Order aggregates snapshotted line items for one user. Total is computed once
// at creation and never recomputed from the live catalog.
type Order struct {
	BaseModel
	UserID uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	Total  float64     `json:"total"`
	Status OrderStatus `gorm:"size:20;default:processing" json:"status"`
	Items  []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Transition moves the order to the given status, enforcing the state machine.
// The order is left untouched on failure.
func (o *Order) Transition(to OrderStatus) error {
	if !o.Status.CanTransition(to) {
		return ErrInvalidStateTransition
	}
	o.Status = to
	return nil
}

// OrderItem is a denormalized snapshot of a product at order time. It is owned
// exclusively by its order and cascade-deletes with it.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Title     string    `gorm:"size:100" json:"title"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Image     string    `json:"image"`
}

// OrderFields is the registry of columns orders can be filtered and sorted by.
var OrderFields = withBaseFields("user_id", "total", "status")

// OrderSearchFields are the columns covered by free-text search.
var OrderSearchFields = []string{"status"}
