package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/handlers"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/middleware"
	"github.com/querylens/querylens/internal/services"
	"github.com/querylens/querylens/internal/session"
)

// Services bundles what the handlers serve
type Services struct {
	Sessions  *session.Manager
	Query     *services.QueryService
	Interpret *services.InterpretService
	Views     *services.ViewService
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, svc Services, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, svc.Sessions, svc.Query, svc.Interpret, svc.Views)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID,X-Session-ID",
		ExposeHeaders: "X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", authMiddleware)

	// Session-bound routes, keyed by X-Session-ID
	v1.Post("/query", h.Query)
	v1.Get("/session", h.Session)
	v1.Get("/session/history", h.History)
	v1.Delete("/session/history", h.ClearHistory)
	v1.Get("/session/views/:view", h.SessionView)

	// Stateless routes over a supplied query result
	v1.Post("/interpret", h.Interpret)
	v1.Post("/views/:view", h.View)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, svc Services, cfg config.Config) *fiber.App {
	fcfg := fiber.Config{
		AppName:               "querylens",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	}
	if cfg.Server.BodyLimit > 0 {
		fcfg.BodyLimit = cfg.Server.BodyLimit
	}
	app := fiber.New(fcfg)

	Setup(app, logger, svc, cfg)

	return app
}
