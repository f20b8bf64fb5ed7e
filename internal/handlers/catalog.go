package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/services"
	"github.com/example/foodexpress/internal/utils"
)

// CatalogHandler serves restaurant and menu browsing.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListRestaurants returns active restaurants filtered by category, rating and name.
func (h *CatalogHandler) ListRestaurants(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	filter := services.RestaurantFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &services.Error{Kind: services.ErrValidation, Field: "rating", Message: "rating must be a number between 0 and 5"}
		}
		if err := utils.ValidateVar("rating", rating, "gte=0,lte=5"); err != nil {
			return &services.Error{Kind: services.ErrValidation, Field: "rating", Message: err.Error()}
		}
		filter.MinRating = rating
	}

	restaurants, total, err := h.catalog.ListRestaurants(c.UserContext(), filter, pg)
	if err != nil {
		return err
	}
	return sendPage(c, restaurants, pg, total)
}

// GetRestaurant returns a single active restaurant.
func (h *CatalogHandler) GetRestaurant(c *fiber.Ctx) error {
	restaurant, err := h.catalog.GetRestaurant(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendData(c, restaurant)
}

// GetMenu returns a restaurant's available items, flat and grouped.
func (h *CatalogHandler) GetMenu(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	filter := services.MenuFilter{Category: c.Query("category")}
	if raw := c.Query("vegetarian"); raw != "" {
		veg, err := strconv.ParseBool(raw)
		if err != nil {
			return &services.Error{Kind: services.ErrValidation, Field: "vegetarian", Message: "vegetarian must be true or false"}
		}
		filter.Vegetarian = &veg
	}

	menu, err := h.catalog.GetMenu(c.UserContext(), c.Params("id"), filter, pg)
	if err != nil {
		return err
	}
	return sendPage(c, menu, pg, menu.Total)
}
