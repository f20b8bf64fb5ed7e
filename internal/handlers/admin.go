package handlers

import (
	"context"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
	"github.com/example/foodexpress/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	accounts *services.AccountService
	catalog  *services.CatalogService
	orders   *services.OrderService
	telegram *services.TelegramService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(accounts *services.AccountService, catalog *services.CatalogService, orders *services.OrderService, telegram *services.TelegramService) *AdminHandler {
	return &AdminHandler{accounts: accounts, catalog: catalog, orders: orders, telegram: telegram}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.orders.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return sendData(c, stats)
}

// ListAllOrders returns all orders with pagination and filtering.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListAllOrders(c.UserContext(), c.Query("status"), c.Query("search"), pg)
	if err != nil {
		return err
	}
	return sendPage(c, orders, pg, total)
}

// RecentOrders returns the latest orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "5"))
	if err != nil || limit <= 0 || limit > 50 {
		limit = 5
	}
	orders, err := h.orders.RecentOrders(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return sendData(c, orders)
}

// OrderTransitions lists the order lifecycle: which actor may move an order
// from each status to the next.
func (h *AdminHandler) OrderTransitions(c *fiber.Ctx) error {
	return sendData(c, services.Transitions())
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order along its lifecycle.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}

	if h.telegram.Enabled() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
			defer cancel()
			if err := h.telegram.NotifyStatusChange(ctx, order); err != nil {
				log.Printf("[Admin] Telegram status notification failed for %s: %v", order.OrderNumber, err)
			}
		}()
	}
	return sendMessage(c, "order status updated", order)
}

// ListAllUsers returns registered accounts with their order totals.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	users, total, err := h.accounts.ListUsers(c.UserContext(), c.Query("search"), pg)
	if err != nil {
		return err
	}
	return sendPage(c, users, pg, total)
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

// UpdateUserRole changes another account's role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	actor, err := mustUser(c)
	if err != nil {
		return err
	}

	var req roleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateRole(c.UserContext(), actor.ID, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return sendMessage(c, "role updated", user)
}

// DeleteUser removes an account without orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	actor, err := mustUser(c)
	if err != nil {
		return err
	}

	if err := h.accounts.DeleteUser(c.UserContext(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return sendMessage(c, "account deleted", nil)
}

// CreateRestaurant adds a restaurant.
func (h *AdminHandler) CreateRestaurant(c *fiber.Ctx) error {
	var req services.RestaurantInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	restaurant, err := h.catalog.CreateRestaurant(c.UserContext(), req)
	if err != nil {
		return err
	}
	return sendCreated(c, "restaurant created", restaurant)
}

// UpdateRestaurant replaces a restaurant's details, including its active flag.
func (h *AdminHandler) UpdateRestaurant(c *fiber.Ctx) error {
	var req services.RestaurantInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	restaurant, err := h.catalog.UpdateRestaurant(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return sendMessage(c, "restaurant updated", restaurant)
}

// CreateMenuItem adds an item to a restaurant's menu.
func (h *AdminHandler) CreateMenuItem(c *fiber.Ctx) error {
	var req services.MenuItemInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.catalog.CreateMenuItem(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return sendCreated(c, "menu item created", item)
}

// UpdateMenuItem replaces a menu item.
func (h *AdminHandler) UpdateMenuItem(c *fiber.Ctx) error {
	var req services.MenuItemInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.catalog.UpdateMenuItem(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return sendMessage(c, "menu item updated", item)
}

// DeleteMenuItem deletes a menu item, or retires it when past orders reference it.
func (h *AdminHandler) DeleteMenuItem(c *fiber.Ctx) error {
	retired, err := h.catalog.DeleteMenuItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if retired {
		return sendMessage(c, "menu item retired because past orders reference it", fiber.Map{"retired": true})
	}
	return sendMessage(c, "menu item deleted", fiber.Map{"retired": false})
}
