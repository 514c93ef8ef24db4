package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/vendor-finance/internal/api/http/handlers"
	"github.com/spec-kit/vendor-finance/internal/auth"
	"github.com/spec-kit/vendor-finance/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Vendors        *handlers.VendorsHandler
	Staff          *handlers.StaffHandler
	Workflow       *handlers.WorkflowHandler
	Assignments    *handlers.AssignmentsHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/vendors/register", cfg.Vendors.Register)
	authGroup.Post("/vendors/login", cfg.Vendors.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protectedAuth.Post("/password/change", cfg.Staff.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	workflow := api.Group("/workflow/:entityType")
	workflow.Post("/", cfg.Workflow.Create)
	workflow.Get("/", cfg.Workflow.List)
	workflow.Get("/:id", cfg.Workflow.Get)
	workflow.Post("/:id/transitions", cfg.Workflow.Transition)
	workflow.Get("/:id/audit", cfg.Audit.EntityHistory)

	assignments := workflow.Group("", auth.RequireStaff())
	assignments.Post("/assignments", cfg.Assignments.Assign)
	assignments.Get("/assignments/suggestion", cfg.Assignments.Suggest)
	assignments.Get("/:id/assignments", cfg.Assignments.History)

	staff := api.Group("/staff", auth.RequireStaff())
	staff.Get("/", cfg.Staff.List)

	admin := api.Group("/staff", auth.RequireStaff(domain.RoleAdmin, domain.RoleSuperAdmin))
	admin.Post("/", cfg.Staff.Create)
	admin.Patch("/:id/active", cfg.Staff.SetActive)

	audit := api.Group("/audit", auth.RequireStaff())
	audit.Get("/", cfg.Audit.Query)
}
