package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists the order header and its line items in one transaction.
// GORM writes the Items association inside the same transaction, so the order
// never partially exists.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order with its line items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "order with id %s not found", id)
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to get order %s", id)
	}
	return &order, nil
}

// List returns one page of order headers plus the total count for the filter.
func (r *GORMOrderRepository) List(status *models.OrderStatus, page, pageSize int) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindPersistence, err, "failed to count orders")
	}

	var orders []models.Order
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list orders")
	}
	return orders, total, nil
}

// UpdateStatus sets the order's status. Concurrent updates on the same order
// race at the storage layer; the last write wins.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) (*models.Order, error) {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, res.Error, "failed to update status of order %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "order with id %s not found", id)
	}
	return r.GetByID(id)
}

// MarkPaid records a successful payment and its receipt in one transaction.
// Every call inserts a fresh receipt row; the payment event carries no
// idempotency key, so duplicate events duplicate the receipt.
func (r *GORMOrderRepository) MarkPaid(id, chargeID, receiptURL string) (*models.Order, error) {
	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":            models.OrderStatusPaid,
			"paid":              true,
			"paid_at":           now,
			"payment_charge_id": chargeID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&models.OrderReceipt{
			OrderID:    id,
			ReceiptURL: receiptURL,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "order with id %s not found", id)
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to mark order %s paid", id)
	}
	return r.GetByID(id)
}
