package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/ws"
)

type Dependencies struct {
	Service handler.AssessmentService
	// DB is pinged by /ready; nil when persistence is disabled
	DB handler.Pinger
	// Hub serves the live assessment feed; nil disables /v1/ws
	Hub *ws.Hub
	// RateLimitMax is requests per minute per client IP; 0 uses the default
	RateLimitMax int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Vendaval Claim Triage",
		BodyLimit:    1 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health and metrics
	var db handler.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if r.deps == nil || r.deps.Service == nil {
		return
	}

	limiterCfg := middleware.DefaultRateLimiterConfig()
	if r.deps.RateLimitMax > 0 {
		limiterCfg.Max = r.deps.RateLimitMax
	}
	r.rateLimiter = middleware.NewRateLimiter(limiterCfg)
	limit := r.rateLimiter.Handler()

	assessmentHandler := handler.NewAssessmentHandler(r.deps.Service, r.logger)

	// Gateway-compatible entry point
	r.app.Post("/aggregate", limit, assessmentHandler.Aggregate)

	v1 := r.app.Group("/v1", limit)
	v1.Post("/claims/assess", assessmentHandler.Assess)
	v1.Get("/claims/:claim_id", assessmentHandler.Get)
	v1.Get("/claims/:claim_id/cross-matches", assessmentHandler.CrossMatches)

	// WebSocket endpoint
	if r.deps.Hub != nil {
		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
