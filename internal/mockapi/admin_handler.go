package mockapi

import (
	"errors"

	"finocr/internal/dto"
	"finocr/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	backend *Backend
	logger  *zap.Logger
}

func NewAdminHandler(backend *Backend, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		backend: backend,
		logger:  logger,
	}
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {array} models.User
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	if _, err := currentUser(c, h.backend); err != nil {
		return err
	}

	users, err := h.backend.Users(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Failed to list users")
	}
	return c.JSON(users)
}

// DeactivateUser godoc
// @Summary Deactivate user
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Security Bearer
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/users/{id}/deactivate [post]
func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error {
	if _, err := currentUser(c, h.backend); err != nil {
		return err
	}

	err := h.backend.Deactivate(c.UserContext(), c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(dto.MessageResponse{Message: "User deactivated successfully"})
	case errors.Is(err, repository.ErrUserNotFound):
		return message(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, ErrForbidden):
		return message(c, fiber.StatusForbidden, "Admin accounts cannot be deactivated")
	default:
		h.logger.Error("Failed to deactivate user", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Failed to deactivate user")
	}
}
