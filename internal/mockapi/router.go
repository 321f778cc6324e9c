package mockapi

import (
	"errors"
	"os"

	"finocr/internal/dto"
	"finocr/pkg/auth"
	"finocr/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type RouterOptions struct {
	// AccessLog enables the per-request log line on stderr.
	AccessLog bool
	// BodyLimit caps request bodies in bytes. Zero uses 64 MiB.
	BodyLimit int
}

func SetupRouter(backend *Backend, jwtManager *auth.JWTManager, appLogger *zap.Logger, opts RouterOptions) *fiber.App {
	bodyLimit := opts.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 64 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:               "finocr-mock",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				msg = e.Message
			} else {
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(dto.ErrorResponse{Message: msg, Detail: msg})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{Output: os.Stderr}))
	}

	authHandler := NewAuthHandler(backend, appLogger)
	docHandler := NewDocumentHandler(backend, appLogger)
	adminHandler := NewAdminHandler(backend, appLogger)
	requireAuth := middleware.AuthMiddleware(jwtManager, appLogger)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/me", requireAuth, authHandler.Me)

	documents := app.Group("/documents", requireAuth)
	documents.Post("/upload", docHandler.UploadDocuments)
	documents.Get("/", docHandler.ListDocuments)
	documents.Get("/:id", docHandler.GetDocument)
	documents.Get("/:id/status", docHandler.GetDocumentStatus)

	// Task status is unauthenticated, like the task-queue endpoint it stands in for.
	app.Get("/tasks/:task_id", docHandler.GetTask)

	admin := app.Group("/admin", requireAuth, middleware.AdminOnly(appLogger))
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users/:id/deactivate", adminHandler.DeactivateUser)

	return app
}
