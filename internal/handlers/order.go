package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
	"github.com/example/foodexpress/internal/utils"
)

const alertTimeout = 15 * time.Second

// OrderHandler manages a customer's orders.
type OrderHandler struct {
	orders   *services.OrderService
	telegram *services.TelegramService
}

// NewOrderHandler constructs OrderHandler. telegram may be nil.
func NewOrderHandler(orders *services.OrderService, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{orders: orders, telegram: telegram}
}

// CreateOrder prices and places an order from the submitted cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req services.CreateOrderInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.Get("Idempotency-Key")
	}

	order, err := h.orders.CreateOrder(c.UserContext(), user.ID, req)
	if err != nil {
		return err
	}

	h.alertNewOrder(order, user)
	return sendCreated(c, "order placed", order)
}

// alertNewOrder notifies the admin chat in the background.
func (h *OrderHandler) alertNewOrder(order *models.Order, user *models.User) {
	if !h.telegram.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		if err := h.telegram.NotifyNewOrder(ctx, order, user); err != nil {
			log.Printf("[Order] Telegram notification failed for %s: %v", order.OrderNumber, err)
			return
		}
		log.Printf("[Order] Telegram notification sent for order %s", order.OrderNumber)
	}()
}

// ListOrders returns the authenticated account's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListOrders(c.UserContext(), user.ID, c.Query("status"), pg)
	if err != nil {
		return err
	}
	return sendPage(c, orders, pg, total)
}

// GetOrder returns one of the authenticated account's orders.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return sendData(c, order)
}

// CancelOrder cancels a pending or confirmed order.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	order, err := h.orders.CancelOrder(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return sendMessage(c, "order cancelled", order)
}

// RateOrder records the rating and review of a delivered order.
func (h *OrderHandler) RateOrder(c *fiber.Ctx) error {
	user, err := mustUser(c)
	if err != nil {
		return err
	}

	var req services.RateInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.RateOrder(c.UserContext(), user.ID, c.Params("id"), req)
	if err != nil {
		return err
	}
	return sendMessage(c, "thanks for your review", order)
}
