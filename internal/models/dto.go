package models

import "github.com/shopspring/decimal"

// OrderItemRequest is one requested line in an order-creation request. The
// caller never supplies a price; pricing always comes from the validator.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the payload for creating an order.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderStatusRequest is the payload for a status transition.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=PENDING PAID DELIVERED CANCELLED"`
}

// PaidOrderEvent is the payment.succeeded payload consumed from the queue.
type PaidOrderEvent struct {
	OrderID    string `json:"order_id" validate:"required,uuid4"`
	ChargeID   string `json:"charge_id" validate:"required"`
	ReceiptURL string `json:"receipt_url" validate:"required,url"`
}

// ValidatedProduct is the product record returned by the remote validator.
// It is the authoritative source for price and name within one workflow run.
type ValidatedProduct struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// PaymentSessionItem is a reduced line sent to the payment service.
type PaymentSessionItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// PaymentSessionRequest is the request sent to the payment service.
type PaymentSessionRequest struct {
	OrderID  string               `json:"order_id"`
	Currency string               `json:"currency"`
	Items    []PaymentSessionItem `json:"items"`
}

// PaymentSession is the handle issued by the payment service. Its lifecycle
// beyond creation belongs to the payment service.
type PaymentSession struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// OrderListMeta describes one page of an order listing.
type OrderListMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"lastPage"`
}

// OrderList is a page of order headers plus pagination metadata.
type OrderList struct {
	Data []Order       `json:"data"`
	Meta OrderListMeta `json:"meta"`
}
