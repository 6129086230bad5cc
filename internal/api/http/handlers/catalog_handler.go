package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/randya04/POSitive/internal/domain"
	"github.com/randya04/POSitive/internal/service"
)

// CatalogHandler serves restaurant/branch reference data for the
// console's selection lists.
type CatalogHandler struct {
	directory *service.DirectoryService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(directory *service.DirectoryService) *CatalogHandler {
	return &CatalogHandler{directory: directory}
}

// Restaurants handles GET /api/restaurants.
func (h *CatalogHandler) Restaurants(c *fiber.Ctx) error {
	restaurants, err := h.directory.ListRestaurants(c.UserContext())
	if err != nil {
		return err
	}
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}
	return c.JSON(restaurants)
}

// Branches handles GET /api/branches?restaurant_id=.
func (h *CatalogHandler) Branches(c *fiber.Ctx) error {
	restaurantID := c.Query("restaurant_id")
	if restaurantID == "" {
		return fiber.NewError(http.StatusBadRequest, "restaurant_id is required")
	}

	branches, err := h.directory.ListBranches(c.UserContext(), restaurantID)
	if err != nil {
		return err
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	return c.JSON(branches)
}
