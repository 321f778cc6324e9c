package mockapi

import (
	"errors"

	"finocr/internal/dto"
	"finocr/internal/models"
	"finocr/internal/repository"
	"finocr/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	backend *Backend
	logger  *zap.Logger
}

func NewAuthHandler(backend *Backend, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		backend: backend,
		logger:  logger,
	}
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Message: msg, Detail: msg})
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user with username, email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}

	err := h.backend.Register(c.UserContext(), &req)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserExists):
		return message(c, fiber.StatusConflict, "Username or email already registered")
	case errors.Is(err, ErrInvalidInput):
		return message(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Registration failed", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{
		Message: "User registered successfully",
	})
}

// Login godoc
// @Summary Login user
// @Description Exchange username or email and password for an access token
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username or email"
// @Param password formData string true "Password"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.backend.Login(c.UserContext(), req.Username, req.Password)
	switch {
	case err == nil:
		return c.JSON(resp)
	case errors.Is(err, ErrInvalidCredentials):
		return message(c, fiber.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, ErrInactiveUser):
		return message(c, fiber.StatusBadRequest, "Inactive user")
	default:
		h.logger.Error("Login failed", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Login failed")
	}
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} models.User
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c, h.backend)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// currentUser resolves the authenticated account. Failures are returned as
// *fiber.Error for the app error handler to render.
func currentUser(c *fiber.Ctx, backend *Backend) (*models.User, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}

	user, err := backend.ActiveUser(c.UserContext(), userID)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ErrInactiveUser):
		return nil, fiber.NewError(fiber.StatusBadRequest, "Inactive user")
	default:
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
	}
}
