package services

import (
	"github.com/shopspring/decimal"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
)

// PricedOrder is the result of pricing a set of requested items against a
// validated catalog.
type PricedOrder struct {
	Items       []models.OrderItem
	TotalAmount decimal.Decimal
	TotalItems  int
}

// Pricer computes price snapshots and totals for an order. Prices come
// exclusively from the validated catalog, never from the caller.
type Pricer struct{}

// Price builds the order lines in input order, snapshotting price and name
// from the first matching catalog entry. An item whose product id has no
// catalog entry fails the whole pricing run.
func (Pricer) Price(items []models.OrderItemRequest, catalog []models.ValidatedProduct) (*PricedOrder, error) {
	priced := &PricedOrder{
		Items:       make([]models.OrderItem, 0, len(items)),
		TotalAmount: decimal.Zero,
	}

	for _, item := range items {
		product, ok := findProduct(catalog, item.ProductID)
		if !ok {
			return nil, apperrors.New(apperrors.KindPricing, "product %s not present in validated catalog", item.ProductID)
		}

		priced.Items = append(priced.Items, models.OrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       product.Price,
			ProductName: product.Name,
		})
		priced.TotalAmount = priced.TotalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		priced.TotalItems += item.Quantity
	}

	return priced, nil
}

func findProduct(catalog []models.ValidatedProduct, id string) (models.ValidatedProduct, bool) {
	for _, product := range catalog {
		if product.ID == id {
			return product, true
		}
	}
	return models.ValidatedProduct{}, false
}
