package services

import (
	"context"
	"log"
	"math"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/clients"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/repositories"
)

// OrderService orchestrates the order workflows: creation (validate, price,
// persist, request payment session), status transitions, and payment
// confirmation.
type OrderService struct {
	orderRepo repositories.OrderRepository
	validator clients.ProductValidator
	payments  clients.PaymentSessionRequester
	pricer    Pricer
	currency  string
}

// NewOrderService creates a new OrderService. All collaborators are passed
// explicitly; nothing is resolved from ambient context.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	validator clients.ProductValidator,
	payments clients.PaymentSessionRequester,
	currency string,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		validator: validator,
		payments:  payments,
		currency:  currency,
	}
}

// CreateOrder runs the create-order workflow. Steps before the database write
// abort the whole operation with nothing persisted. Once the order is
// committed it stays committed: a payment-session failure is returned
// together with the persisted order so the caller can retry session creation
// against the existing order id.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, *models.PaymentSession, error) {
	// 1. Distinct product ids referenced by the request.
	productIDs := distinctProductIDs(req.Items)

	// 2. Validate against the remote service of record.
	products, err := s.validator.Validate(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}

	// 3. Price the requested items against the validated catalog.
	priced, err := s.pricer.Price(req.Items, products)
	if err != nil {
		return nil, nil, err
	}

	// 4. Persist header and lines atomically.
	order := &models.Order{
		Status:      models.OrderStatusPending,
		TotalAmount: priced.TotalAmount,
		TotalItems:  priced.TotalItems,
		Items:       priced.Items,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, nil, err
	}

	// 5. Request a payment session for the persisted order. The order is
	// already durable and is not rolled back if this fails.
	session, err := s.payments.CreateSession(ctx, paymentSessionRequest(order, s.currency))
	if err != nil {
		log.Printf("Payment session creation failed for order %s: %v", order.ID, err)
		return order, nil, err
	}

	return order, session, nil
}

// GetOrder returns the order with its line items.
func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// ListOrders returns one page of order headers with pagination metadata.
// Pages are 1-indexed; lastPage = ceil(total / pageSize).
func (s *OrderService) ListOrders(status *models.OrderStatus, page, pageSize int) (*models.OrderList, error) {
	orders, total, err := s.orderRepo.List(status, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.OrderList{
		Data: orders,
		Meta: models.OrderListMeta{
			Total:    total,
			Page:     page,
			LastPage: int(math.Ceil(float64(total) / float64(pageSize))),
		},
	}, nil
}

// UpdateOrderStatus transitions an order to a new status. The only guard is
// the same-status no-op rejection; any other status-to-status jump is
// accepted. A transition table would be enforced here if one were ever
// introduced.
func (s *OrderService) UpdateOrderStatus(id string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if order.Status == status {
		return nil, apperrors.New(apperrors.KindNoOpTransition, "order %s already has status %s", id, status)
	}

	return s.orderRepo.UpdateStatus(id, status)
}

// HandlePaymentSucceeded applies a payment-succeeded event. The signal source
// expects no reply, so failures are logged and swallowed here.
func (s *OrderService) HandlePaymentSucceeded(event models.PaidOrderEvent) {
	log.Printf("Order %s paid (charge %s)", event.OrderID, event.ChargeID)

	if _, err := s.orderRepo.MarkPaid(event.OrderID, event.ChargeID, event.ReceiptURL); err != nil {
		log.Printf("Failed to mark order %s paid: %v", event.OrderID, err)
	}
}

func distinctProductIDs(items []models.OrderItemRequest) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	return ids
}

func paymentSessionRequest(order *models.Order, currency string) models.PaymentSessionRequest {
	items := make([]models.PaymentSessionItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, models.PaymentSessionItem{
			Name:     line.ProductName,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}
	return models.PaymentSessionRequest{
		OrderID:  order.ID,
		Currency: currency,
		Items:    items,
	}
}
