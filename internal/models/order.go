package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the recognized order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a single line within an order. Price and ProductName are
// snapshots taken from the validator at creation time; later catalog changes
// do not affect persisted orders.
type OrderItem struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	OrderID     string          `json:"-" gorm:"type:varchar(36);index"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36)"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	ProductName string          `json:"product_name"`
}

// Order is a customer order with its line items.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(16);index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	TotalItems      int             `json:"total_items"`
	Paid            bool            `json:"paid"`
	PaidAt          *time.Time      `json:"paid_at"`
	PaymentChargeID string          `json:"payment_charge_id,omitempty"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderReceipt records the receipt issued for a successful payment. One row
// is inserted per payment.succeeded event; duplicate events for the same
// order produce duplicate rows (the event carries no idempotency key).
type OrderReceipt struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	OrderID    string    `json:"order_id" gorm:"type:varchar(36);index"`
	ReceiptURL string    `json:"receipt_url"`
	CreatedAt  time.Time `json:"created_at"`
}
