package server

import (
	"log"

	"ai-shopping-assistant-be/internal/config"
	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RouteRegistrar mounts a controller's handlers.
type RouteRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, routes RouteRegistrar, appLogger logger.ILogger) *Server {
	return &Server{
		app: NewApp(cfg, routes, appLogger),
		cfg: cfg,
	}
}

// NewApp builds the Fiber app with middleware and routes.
func NewApp(cfg *config.Config, routes RouteRegistrar, appLogger logger.ILogger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024, // 16MB
		ErrorHandler: serverutils.ErrorHandler(appLogger),
	})

	// panics become errors so ErrorHandler still answers with the envelope
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.SessionMiddleware(cfg.Session.Secret, cfg.IsProduction()))

	routes.RegisterRoutes(app)
	return app
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
