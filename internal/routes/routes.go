package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/events"
	"github.com/example/foodexpress/internal/handlers"
	"github.com/example/foodexpress/internal/middleware"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
)

// Dependencies are the external collaborators of the HTTP layer. Nil
// fields fall back to defaults built from the config.
type Dependencies struct {
	Notifier services.Notifier
	Events   events.Publisher
	Telegram *services.TelegramService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) {
	if deps.Notifier == nil {
		deps.Notifier = services.NewNotifier(cfg)
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Telegram == nil {
		deps.Telegram = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	}

	accounts := services.NewAccountService(db, cfg, deps.Notifier)
	catalog := services.NewCatalogService(db)
	orders := services.NewOrderService(db, cfg, deps.Events)
	profiles := services.NewProfileService(db)

	authHandler := handlers.NewAuthHandler(accounts)
	catalogHandler := handlers.NewCatalogHandler(catalog)
	orderHandler := handlers.NewOrderHandler(orders, deps.Telegram)
	profileHandler := handlers.NewProfileHandler(profiles)
	adminHandler := handlers.NewAdminHandler(accounts, catalog, orders, deps.Telegram)

	requireAuth := middleware.AuthMiddleware(accounts)

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "database unavailable"})
		}
		return c.JSON(fiber.Map{"success": true, "message": "ok"})
	})

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)

	// Catalog routes
	restaurants := api.Group("/restaurants", middleware.OptionalAuth(accounts))
	restaurants.Get("/", catalogHandler.ListRestaurants)
	restaurants.Get("/:id", catalogHandler.GetRestaurant)
	restaurants.Get("/:id/menu", catalogHandler.GetMenu)

	// Orders
	ordersGroup := api.Group("/orders", requireAuth)
	ordersGroup.Post("/", orderHandler.CreateOrder)
	ordersGroup.Get("/", orderHandler.ListOrders)
	ordersGroup.Get("/:id", orderHandler.GetOrder)
	ordersGroup.Patch("/:id/cancel", orderHandler.CancelOrder)
	ordersGroup.Post("/:id/review", orderHandler.RateOrder)

	// Profile
	profile := api.Group("/profile", requireAuth)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Put("/password", profileHandler.ChangePassword)
	profile.Put("/notifications", profileHandler.UpdateNotifications)
	profile.Get("/addresses", profileHandler.ListAddresses)
	profile.Post("/addresses", profileHandler.CreateAddress)
	profile.Put("/addresses/:id", profileHandler.UpdateAddress)
	profile.Delete("/addresses/:id", profileHandler.DeleteAddress)

	// Admin console
	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Get("/orders/recent", adminHandler.RecentOrders)
	admin.Get("/orders/transitions", adminHandler.OrderTransitions)
	admin.Patch("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Post("/restaurants", adminHandler.CreateRestaurant)
	admin.Put("/restaurants/:id", adminHandler.UpdateRestaurant)
	admin.Post("/restaurants/:id/menu", adminHandler.CreateMenuItem)
	admin.Put("/menu/:id", adminHandler.UpdateMenuItem)
	admin.Delete("/menu/:id", adminHandler.DeleteMenuItem)

	superAdminOnly := middleware.RequireRoles(models.RoleSuperAdmin)
	admin.Patch("/users/:id/role", superAdminOnly, adminHandler.UpdateUserRole)
	admin.Delete("/users/:id", superAdminOnly, adminHandler.DeleteUser)
}
