package middleware

import (
	"strings"

	"finocr/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	LocalUserID  = "userID"
	LocalIsAdmin = "isAdmin"
)

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"detail":  message,
	})
}

func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			logger.Debug("Missing authorization token", zap.String("path", c.Path()))
			return unauthorized(c, "Not authenticated")
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return unauthorized(c, "Could not validate credentials")
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalIsAdmin, claims.IsAdmin)

		return c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, _ := c.Locals(LocalIsAdmin).(bool); !isAdmin {
			logger.Warn("Admin route refused", zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin privileges required",
			})
		}
		return c.Next()
	}
}

// UserID returns the token subject stored by AuthMiddleware.
func UserID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(LocalUserID).(string)
	return id, ok && id != ""
}
