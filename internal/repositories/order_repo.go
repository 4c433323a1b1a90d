package repositories

import (
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
)

// OrderRepository defines the interface for order data access. Create and
// MarkPaid are atomic: the order header and its dependent rows succeed or
// fail together.
type OrderRepository interface {
	// Create persists the order header and all of its line items in one
	// transaction, generating the id and setting status=PENDING.
	Create(order *models.Order) error
	// GetByID returns the order with its line items attached.
	GetByID(id string) (*models.Order, error)
	// List returns one 1-indexed page of order headers (no line items)
	// plus the total count matching the filter. A nil status lists all.
	List(status *models.OrderStatus, page, pageSize int) ([]models.Order, int64, error)
	// UpdateStatus sets the order's status and returns the updated order.
	UpdateStatus(id string, status models.OrderStatus) (*models.Order, error)
	// MarkPaid records a successful payment: paid=true, paidAt=now,
	// status=PAID, the charge id, and one receipt row, in one transaction.
	MarkPaid(id, chargeID, receiptURL string) (*models.Order, error)
}
