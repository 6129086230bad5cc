package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/randya04/POSitive/internal/api/dto"
	"github.com/randya04/POSitive/internal/domain"
	"github.com/randya04/POSitive/internal/repository"
	"github.com/randya04/POSitive/internal/service"
)

// UsersHandler exposes the staff directory endpoints.
type UsersHandler struct {
	directory *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(directory *service.DirectoryService) *UsersHandler {
	return &UsersHandler{directory: directory}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.ProfileFilter{Search: c.Query("search")}
	if roleStr := c.Query("role"); roleStr != "" {
		role, err := domain.ParseRole(roleStr)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "unknown role")
		}
		filter.Role = &role
	}
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		filter.RestaurantID = &restaurantID
	}

	users, err := h.directory.ListUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": users})
}

// Invite handles POST /api/inviteUser.
func (h *UsersHandler) Invite(c *fiber.Ctx) error {
	var req dto.InviteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.FullName == "" || req.Email == "" || req.Role == "" || req.Phone == "" || req.IsActive == nil {
		return fiber.NewError(http.StatusBadRequest, "full_name, email, role, phone, is_active are required")
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "unknown role")
	}

	view, err := h.directory.Invite(c.UserContext(), service.InviteInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         role,
		Phone:        req.Phone,
		IsActive:     *req.IsActive,
		RestaurantID: req.RestaurantID,
		BranchID:     req.BranchID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Update handles PATCH /api/users.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "id is required")
	}

	view, err := h.directory.Update(c.UserContext(), req.ID, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// SetActive handles PATCH /api/users/active, the minimal-payload
// endpoint behind the per-row activation switch. Repeating the same
// value is a no-op success.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "id is required")
	}
	if req.IsActive == nil {
		return fiber.NewError(http.StatusBadRequest, "is_active is required")
	}

	if err := h.directory.SetActive(c.UserContext(), req.ID, *req.IsActive); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": req.ID, "is_active": *req.IsActive}})
}

// Delete handles DELETE /api/users?id=. Irreversible; the console
// confirms with the operator before calling.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return fiber.NewError(http.StatusBadRequest, "id is required")
	}

	if err := h.directory.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}
