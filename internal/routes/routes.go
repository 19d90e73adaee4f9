package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qubzes/baiyit/internal/auth"
	"github.com/qubzes/baiyit/internal/handlers"
	"github.com/qubzes/baiyit/internal/middleware"
)

// Deps are the process-wide collaborators handed to the route handlers.
// Interfaces keep the policy engine and mail queue swappable in tests.
type Deps struct {
	DB        *gorm.DB
	Sessions  *auth.Manager
	Checker   middleware.PermissionChecker
	Directory handlers.Directory
	Mailer    handlers.Mailer
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Sessions, deps.Directory, deps.Mailer)
	productHandler := handlers.NewProductHandler(deps.DB)
	orderHandler := handlers.NewOrderHandler(deps.DB)

	requireAuth := middleware.RequireAuth(deps.Sessions)

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/request-otp", authHandler.RequestOTP)
	authGroup.Post("/verify-otp", authHandler.VerifyOTP)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Get("/me", requireAuth, authHandler.Me)
	authGroup.Post("/sign-out", requireAuth, authHandler.SignOut)

	// Catalog routes; reads are public, writes go through the policy engine.
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", requireAuth,
		middleware.RequirePermission(deps.Checker, "create", "product"),
		productHandler.CreateProduct)
	products.Put("/:id", requireAuth,
		middleware.RequirePermission(deps.Checker, "update", "product"),
		productHandler.UpdateProduct)
	products.Delete("/:id", requireAuth,
		middleware.RequirePermission(deps.Checker, "delete", "product"),
		productHandler.DeleteProduct)

	// Order routes, all authenticated and policy-checked.
	orders := api.Group("/orders", requireAuth)
	orders.Post("/",
		middleware.RequirePermission(deps.Checker, "create", "order"),
		orderHandler.CreateOrder)
	orders.Get("/",
		middleware.RequirePermission(deps.Checker, "read", "order"),
		orderHandler.ListOrders)
	orders.Get("/:id",
		middleware.RequirePermission(deps.Checker, "read", "order"),
		orderHandler.GetOrder)
	orders.Patch("/:id/cancel",
		middleware.RequirePermission(deps.Checker, "update", "order"),
		orderHandler.CancelOrder)
	orders.Patch("/:id/status",
		middleware.RequirePermission(deps.Checker, "update", "order"),
		orderHandler.UpdateStatus)
}
