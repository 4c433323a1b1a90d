package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/GerardoICS-Microservices/orders-microservice/internal/apperrors"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/models"
	"github.com/GerardoICS-Microservices/orders-microservice/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The status
// update route is for gateway/admin use and sits behind the auth middleware.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", authRequired, h.HandleUpdateOrderStatus)
}

// HandleCreateOrder runs the create-order workflow and returns the persisted
// order together with its payment session.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req models.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order request",
			"error":   err.Error(),
		})
	}

	order, session, err := h.service.CreateOrder(c.UserContext(), req)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		// An order alongside the error means it was persisted before the
		// payment-session step failed; tell the caller which id to retry.
		if order != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"message":  "Order created but payment session failed; retry against the existing order",
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
		return errorResponse(c, err, "Could not create order")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":           order,
		"payment_session": session,
	})
}

// HandleListOrders returns one page of orders, optionally filtered by status.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 || limit < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "page and limit must be positive",
		})
	}

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		candidate := models.OrderStatus(raw)
		if !candidate.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Unknown order status: " + raw,
			})
		}
		status = &candidate
	}

	list, err := h.service.ListOrders(status, page, limit)
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return errorResponse(c, err, "Could not retrieve orders")
	}
	return c.JSON(list)
}

// HandleGetOrderByID retrieves a single order with its line items.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.Params("id"))
	if err != nil {
		log.Printf("Error getting order by id %s: %v", c.Params("id"), err)
		return errorResponse(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatus transitions an order to a new status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req models.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid status update request",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateOrderStatus(c.Params("id"), req.Status)
	if err != nil {
		log.Printf("Error updating status of order %s: %v", c.Params("id"), err)
		return errorResponse(c, err, "Could not update order status")
	}
	return c.JSON(order)
}

// statusForError maps an error classification to an HTTP status code.
func statusForError(err error) int {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindNotFound {
		return fiber.StatusNotFound
	}
	if kind.ClientError() {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error, fallback string) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"message": fallback,
		"error":   err.Error(),
	})
}
