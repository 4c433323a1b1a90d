package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/handlers"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/middleware"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/repositories"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/services"
)

const testJWTSecret = "test_jwt_secret"

// stubValidator is a canned clients.ProductValidator.
type stubValidator struct {
	products []models.ValidatedProduct
	err      error
}

func (s stubValidator) Validate(ctx context.Context, productIDs []string) ([]models.ValidatedProduct, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

// stubPayments is a canned clients.PaymentSessionRequester.
type stubPayments struct {
	session *models.PaymentSession
	err     error
}

func (s stubPayments) CreateSession(ctx context.Context, req models.PaymentSessionRequest) (*models.PaymentSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func defaultCatalog() []models.ValidatedProduct {
	return []models.ValidatedProduct{
		{ID: "P1", Name: "A", Price: decimal.NewFromInt(10)},
		{ID: "P2", Name: "B", Price: decimal.NewFromInt(5)},
	}
}

func newTestApp(t *testing.T, validator stubValidator, payments stubPayments) (*fiber.App, *repositories.MockOrderRepository) {
	t.Helper()

	repo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(repo, validator, payments, "usd")
	handler := handlers.NewOrderHandler(service)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handler.RegisterRoutes(apiV1, middleware.AuthRequired(testJWTSecret))
	return app, repo
}

func signTestToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "gateway",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestHandleCreateOrder(t *testing.T) {
	app, _ := newTestApp(t,
		stubValidator{products: defaultCatalog()},
		stubPayments{session: &models.PaymentSession{ID: "sess-1", URL: "https://pay.example/sess-1"}},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", jsonBody(t, models.CreateOrderRequest{
		Items: []models.OrderItemRequest{
			{ProductID: "P1", Quantity: 2},
			{ProductID: "P2", Quantity: 1},
		},
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "PENDING", order["status"])
	assert.Equal(t, float64(3), order["total_items"])
	assert.NotEmpty(t, order["id"])
	session := body["payment_session"].(map[string]interface{})
	assert.Equal(t, "sess-1", session["id"])
}

func TestHandleCreateOrder_EmptyItems(t *testing.T) {
	app, _ := newTestApp(t, stubValidator{products: defaultCatalog()}, stubPayments{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders",
		bytes.NewReader([]byte(`{"items":[]}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateOrder_ValidationFailure(t *testing.T) {
	app, repo := newTestApp(t,
		stubValidator{err: apperrors.New(apperrors.KindValidation, "unknown product P9")},
		stubPayments{},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", jsonBody(t, models.CreateOrderRequest{
		Items: []models.OrderItemRequest{{ProductID: "P9", Quantity: 1}},
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No order row exists afterward.
	_, total, listErr := repo.List(nil, 1, 10)
	assert.NoError(t, listErr)
	assert.Equal(t, int64(0), total)
}

func TestHandleCreateOrder_PaymentFailureReportsOrderID(t *testing.T) {
	app, repo := newTestApp(t,
		stubValidator{products: defaultCatalog()},
		stubPayments{err: apperrors.New(apperrors.KindPaymentRequest, "payments service unavailable")},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", jsonBody(t, models.CreateOrderRequest{
		Items: []models.OrderItemRequest{{ProductID: "P1", Quantity: 1}},
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	orderID, _ := body["order_id"].(string)
	assert.NotEmpty(t, orderID, "persisted order id must be reported for retry")

	// The order survived the payment failure.
	order, getErr := repo.GetByID(orderID)
	assert.NoError(t, getErr)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestHandleListOrders_Pagination(t *testing.T) {
	app, repo := newTestApp(t, stubValidator{}, stubPayments{})
	for i := 0; i < 25; i++ {
		order := &models.Order{
			TotalAmount: decimal.NewFromInt(int64(i + 1)),
			TotalItems:  1,
			Items:       []models.OrderItem{{ProductID: fmt.Sprintf("P%d", i), Quantity: 1, Price: decimal.NewFromInt(1), ProductName: "X"}},
		}
		assert.NoError(t, repo.Create(order))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=2&limit=10", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Len(t, body["data"].([]interface{}), 10)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(25), meta["total"])
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(3), meta["lastPage"])
}

func TestHandleListOrders_UnknownStatus(t *testing.T) {
	app, _ := newTestApp(t, stubValidator{}, stubPayments{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=SHIPPED", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetOrderByID_NotFound(t *testing.T) {
	app, _ := newTestApp(t, stubValidator{}, stubPayments{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/orders/no-such-order", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleUpdateOrderStatus_RequiresAuth(t *testing.T) {
	app, _ := newTestApp(t, stubValidator{}, stubPayments{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/order-1/status",
		bytes.NewReader([]byte(`{"status":"DELIVERED"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleUpdateOrderStatus(t *testing.T) {
	app, repo := newTestApp(t, stubValidator{}, stubPayments{})
	order := &models.Order{
		TotalAmount: decimal.NewFromInt(5),
		TotalItems:  1,
		Items:       []models.OrderItem{{ProductID: "P1", Quantity: 1, Price: decimal.NewFromInt(5), ProductName: "A"}},
	}
	assert.NoError(t, repo.Create(order))
	token := signTestToken(t)

	patch := func(status string) *http.Response {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+order.ID+"/status",
			bytes.NewReader([]byte(`{"status":"`+status+`"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		return resp
	}

	// Same-status update is rejected, not silently accepted.
	resp := patch("PENDING")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = patch("DELIVERED")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "DELIVERED", body["status"])

	got, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)
}

func TestHandleUpdateOrderStatus_InvalidStatus(t *testing.T) {
	app, _ := newTestApp(t, stubValidator{}, stubPayments{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/order-1/status",
		bytes.NewReader([]byte(`{"status":"SHIPPED"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken(t))

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
