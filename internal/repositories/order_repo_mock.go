package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders   map[string]models.Order
	receipts []models.OrderReceipt
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create stores the order with its line items.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order with its line items.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "order with id %s not found", id)
	}
	return &order, nil
}

// List returns one page of order headers plus the total count for the filter.
func (r *MockOrderRepository) List(status *models.OrderStatus, page, pageSize int) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if status != nil && order.Status != *status {
			continue
		}
		order.Items = nil // headers only, like the database listing
		matched = append(matched, order)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// UpdateStatus sets the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "order with id %s not found", id)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return &order, nil
}

// MarkPaid records a payment and appends a receipt.
func (r *MockOrderRepository) MarkPaid(id, chargeID, receiptURL string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "order with id %s not found", id)
	}
	now := time.Now()
	order.Status = models.OrderStatusPaid
	order.Paid = true
	order.PaidAt = &now
	order.PaymentChargeID = chargeID
	order.UpdatedAt = now
	r.orders[id] = order

	r.receipts = append(r.receipts, models.OrderReceipt{
		OrderID:    id,
		ReceiptURL: receiptURL,
		CreatedAt:  now,
	})
	return &order, nil
}

// Receipts returns all receipts recorded so far.
func (r *MockOrderRepository) Receipts() []models.OrderReceipt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.OrderReceipt, len(r.receipts))
	copy(out, r.receipts)
	return out
}
