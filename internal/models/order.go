package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusCancelled, OrderStatusCompleted:
		return true
	}
	return false
}

type Order struct {
	ID         int64           `json:"id" db:"id"`
	StoreID    int64           `json:"storeId" db:"store_id"`
	CustomerID int64           `json:"customerId" db:"customer_id"`
	Reference  string          `json:"reference" db:"reference"`
	Customer   CustomerDetails `json:"customer" db:"-"`
	Status     OrderStatus     `json:"status" db:"status"`
	Total      decimal.Decimal `json:"totalAmount" db:"total"`
	Items      []OrderItem     `json:"items" db:"-"`
	Notes      string          `json:"notes" db:"notes"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// OrderItem snapshots the unit price at the time the order was placed.
type OrderItem struct {
	ProductID   int64           `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CustomerDetails identifies the buyer on an order.
type CustomerDetails struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=7"`
	Address string `json:"address" validate:"required"`
}

type OrderLineInput struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type OrderInput struct {
	StoreID  int64            `json:"storeId" validate:"required"`
	Customer CustomerDetails  `json:"customer"`
	Items    []OrderLineInput `json:"items" validate:"required,min=1,dive"`
	Notes    string           `json:"notes"`
}

func (in OrderInput) WithStore(storeID int64) OrderInput {
	in.StoreID = storeID
	return in
}

type OrderPatch struct {
	Status *OrderStatus `json:"status,omitempty"`
	Notes  *string      `json:"notes,omitempty"`
}

func (p OrderPatch) Apply(order Order) Order {
	if p.Status != nil {
		order.Status = *p.Status
	}
	if p.Notes != nil {
		order.Notes = *p.Notes
	}
	return order
}
