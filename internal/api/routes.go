package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/api/handlers"
	"github.com/outreach/outreach-chat/internal/api/middleware"
	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/services"
)

// Options configures the reference API application
type Options struct {
	Chat        *services.ChatService
	JWT         *auth.JWTService
	Logger      *logrus.Logger
	CORSOrigins string
	// APIRateMax/APIRateWindow bound all chat API requests per user and
	// ChatRateMax/ChatRateWindow bound message submissions. Zero values use
	// the middleware defaults.
	APIRateMax     int
	APIRateWindow  time.Duration
	ChatRateMax    int
	ChatRateWindow time.Duration
}

// NewApp builds the fiber application with middleware and routes
func NewApp(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Outreach Chat API",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.AuditMiddleware(middleware.AuditConfig{
		Logger:    opts.Logger,
		SkipPaths: []string{"/api/health"},
	}))
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, DELETE, OPTIONS",
		}))
	}

	SetupRoutes(app, opts)
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, opts Options) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "outreach-chat",
		})
	})

	sessions := handlers.NewSessionHandlers(opts.Chat, opts.Logger)

	chat := api.Group("/chat",
		middleware.AuthRequired(opts.JWT),
		middleware.APIRateLimit(opts.APIRateMax, opts.APIRateWindow))
	chat.Get("/sessions", sessions.ListSessions)
	chat.Post("/sessions", sessions.CreateSession)
	chat.Get("/sessions/:id", sessions.GetSession)
	chat.Delete("/sessions/:id", sessions.DeleteSession)
	chat.Post("/sessions/:id/messages",
		middleware.ChatRateLimit(opts.ChatRateMax, opts.ChatRateWindow),
		sessions.SendMessage)
}

// ErrorHandler renders errors as {"error": "..."} with the fiber status code
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
