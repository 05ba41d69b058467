package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a consumer order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a single consumer order awaiting delivery.
// Orders are created at checkout (outside this service); batch generation
// only sets the status, batch reference, and box code.
type Order struct {
	OrderID       uuid.UUID
	ConsumerID    uuid.UUID
	DeliveryDate  time.Time
	Status        OrderStatus
	StreetAddress string
	ZipCode       string
	BatchID       *uuid.UUID
	BoxCode       *string
}
