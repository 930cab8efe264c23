package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the status string reported by the backend. The backend mixes
// lowercase order statuses with uppercase delivery statuses, so compare through
// Normalize.
type OrderStatus string

const (
	StatusCreated         OrderStatus = "CREATED"
	StatusPending         OrderStatus = "PENDING"
	StatusConfirmed       OrderStatus = "CONFIRMED"
	StatusPreparing       OrderStatus = "PREPARING"
	StatusWaitingForDrone OrderStatus = "WAITING_FOR_DRONE"
	StatusAssigned        OrderStatus = "ASSIGNED"
	StatusInTransit       OrderStatus = "IN_TRANSIT"
	StatusDelivering      OrderStatus = "DELIVERING"
	StatusArrived         OrderStatus = "ARRIVED"
	StatusDelivered       OrderStatus = "DELIVERED"
	StatusCompleted       OrderStatus = "COMPLETED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusDeliveryFailed  OrderStatus = "DELIVERY_FAILED"
)

func (s OrderStatus) Normalize() OrderStatus {
	return OrderStatus(strings.ToUpper(strings.TrimSpace(string(s))))
}

type Order struct {
	ID                 ID              `json:"_id"`
	BranchID           ID              `json:"branchId"`
	Items              []OrderItem     `json:"items"`
	Address            Address         `json:"address"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DeliveryFee        decimal.Decimal `json:"deliveryFee"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Status             OrderStatus     `json:"status"`
	PaymentStatus      string          `json:"paymentStatus"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// OrderItem is a price snapshot taken by the backend when the order was placed.
type OrderItem struct {
	FoodVariantID ID              `json:"foodVariantId"`
	Title         string          `json:"title"`
	Size          string          `json:"size"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// Address is the delivery form cached between checkouts.
type Address struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Zipcode   string `json:"zipcode" validate:"required"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}
