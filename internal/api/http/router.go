package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyforme-service/internal/api/http/handlers"
	"github.com/spec-kit/buyforme-service/internal/auth"
	"github.com/spec-kit/buyforme-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Requests       *handlers.RequestsHandler
	StaffRequests  *handlers.StaffRequestsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)

	api.Get("/users/me", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Users.Me)

	staff := api.Group("/staff", cfg.AuthMiddleware.Handle)
	staff.Get("/me", auth.RequireStaff(), cfg.Staff.Me)
	staff.Get("/members", auth.RequireStaff(domain.PermissionOrderManagement), cfg.Staff.List)

	requests := api.Group("/buyforme/requests", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/number/:number", cfg.Requests.GetByNumber)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Put("/:id", cfg.Requests.Modify)
	requests.Delete("/:id", cfg.Requests.Delete)
	requests.Post("/:id/customer-review", auth.RequireUser(), cfg.Requests.CustomerReview)
	requests.Post("/:id/packing", auth.RequireUser(), cfg.Requests.ChoosePacking)

	orders := auth.RequireStaff(domain.PermissionOrderManagement)
	requests.Post("/:id/review", orders, cfg.StaffRequests.Review)
	requests.Post("/:id/payment", auth.RequireStaff(domain.PermissionFinancialAccess), cfg.StaffRequests.Payment)
	requests.Post("/:id/purchase", orders, cfg.StaffRequests.Purchase)
	requests.Post("/:id/quality-control", orders, cfg.StaffRequests.QualityControl)
	requests.Post("/:id/shipping", orders, cfg.StaffRequests.Ship)
	requests.Post("/:id/delivery", orders, cfg.StaffRequests.Deliver)
	requests.Post("/:id/returns", orders, cfg.StaffRequests.Returns)
}
