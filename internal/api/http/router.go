package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/api/http/handlers"
	"github.com/spec-kit/ppa-crm/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Employees      *handlers.EmployeesHandler
	Leads          *handlers.LeadsHandler
	Tasks          *handlers.TasksHandler
	Activities     *handlers.ActivitiesHandler
	Documents      *handlers.DocumentsHandler
	Buyer          *handlers.BuyerHandler
	Admin          *handlers.AdminHandler
	Public         *handlers.PublicHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requireBuyer := cfg.AuthMiddleware.RequireBuyer()
	requireEmployee := cfg.AuthMiddleware.RequireEmployee()
	requireAdmin := cfg.AuthMiddleware.RequireAdmin()

	api := app.Group("/api")

	// Marketplace buyer accounts.
	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", requireBuyer, cfg.Auth.Me)

	// Public website forms.
	api.Post("/leads", cfg.Public.SubmitLead)
	api.Post("/sellers/register", cfg.Public.RegisterSeller)

	employees := api.Group("/employees")
	employees.Post("/login", cfg.Auth.EmployeeLogin)
	employees.Post("/logout", cfg.Auth.EmployeeLogout)
	employees.Use(requireEmployee)
	employees.Get("/me", cfg.Employees.Me)
	employees.Get("/", access.Guard(access.ActionListEmployees), cfg.Employees.List)
	employees.Post("/", access.Guard(access.ActionCreateEmployee), cfg.Employees.Create)
	employees.Get("/:id/team", cfg.Employees.Team)
	employees.Put("/:id", cfg.Employees.Update)
	employees.Delete("/:id", cfg.Employees.Deactivate)

	crm := api.Group("/crm", requireEmployee)
	crm.Get("/leads", cfg.Leads.List)
	crm.Post("/leads", cfg.Leads.Create)
	crm.Get("/leads/stats", cfg.Leads.Stats)
	crm.Get("/leads/:id", cfg.Leads.Get)
	crm.Put("/leads/:id", cfg.Leads.Update)
	crm.Patch("/leads/:id/assign", cfg.Leads.Assign)
	crm.Patch("/leads/:id/status", cfg.Leads.ChangeStatus)
	crm.Get("/leads/:id/activities", cfg.Activities.ListForLead)
	crm.Post("/leads/:id/activities", cfg.Activities.Create)
	crm.Get("/leads/:id/documents", cfg.Documents.ListForLead)
	crm.Post("/leads/:id/documents", cfg.Documents.Upload)

	crm.Get("/tasks", cfg.Tasks.List)
	crm.Post("/tasks", cfg.Tasks.Create)
	crm.Get("/tasks/:id", cfg.Tasks.Get)
	crm.Put("/tasks/:id", cfg.Tasks.Update)
	crm.Patch("/tasks/:id/complete", cfg.Tasks.Complete)
	crm.Delete("/tasks/:id", cfg.Tasks.Delete)

	crm.Get("/activities", cfg.Activities.List)
	crm.Put("/activities/:id", cfg.Activities.Update)
	crm.Delete("/activities/:id", cfg.Activities.Delete)

	crm.Get("/documents/:id/file", cfg.Documents.Download)
	crm.Delete("/documents/:id", cfg.Documents.Delete)

	buyer := api.Group("/buyer", requireBuyer)
	buyer.Get("/matches", cfg.Buyer.Matches)
	buyer.Post("/terms/:matchId", cfg.Buyer.AgreeTerms)
	buyer.Get("/seller/:matchId", cfg.Buyer.Seller)

	admin := api.Group("/admin")
	admin.Post("/login", cfg.Auth.AdminLogin)
	admin.Post("/logout", cfg.Auth.AdminLogout)
	admin.Use(requireAdmin)
	admin.Get("/me", cfg.Auth.AdminMe)
	admin.Get("/metrics", cfg.Health.Metrics)
	admin.Get("/users", cfg.Admin.ListBuyers)
	admin.Get("/users/:id", cfg.Admin.GetBuyer)
	admin.Get("/sellers", cfg.Admin.ListSellers)
	admin.Post("/sellers", cfg.Admin.CreateSeller)
	admin.Put("/sellers/:id", cfg.Admin.UpdateSeller)
	admin.Delete("/sellers/:id", cfg.Admin.DeleteSeller)
	admin.Get("/matches", cfg.Admin.ListMatches)
	admin.Post("/matches", cfg.Admin.CreateMatch)
	admin.Delete("/matches/:id", cfg.Admin.DeleteMatch)
}
