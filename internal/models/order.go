package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
// CANCELLED is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uint            `gorm:"primaryKey"                  json:"id"`
	UserID          uint            `gorm:"index;not null"              json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"size:16;index;not null"      json:"status"`
	ShippingAddress string          `gorm:"not null"                    json:"shipping_address"`
	PaymentMethod   string          `gorm:"not null"                    json:"payment_method"`
	CreatedAt       time.Time       `gorm:"index"                       json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID uint            `gorm:"index;not null"              json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
