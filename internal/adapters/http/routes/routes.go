package routes

import (
	"korfarm-api/internal/adapters/http/handlers"
	"korfarm-api/internal/adapters/http/middleware"
	"korfarm-api/internal/adapters/persistence/repositories"
	"korfarm-api/internal/config"
	"korfarm-api/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	orgRepo := repositories.NewOrgRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	parentLinkRepo := repositories.NewParentLinkRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	productRepo := repositories.NewProductRepository(db)
	shipmentRepo := repositories.NewShipmentRepository(db)
	flagRepo := repositories.NewFeatureFlagRepository(db)
	txManager := repositories.NewTxManager(db)

	// Initialize services
	roleService := services.NewRoleService(membershipRepo, parentLinkRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, orgRepo, membershipRepo, roleService, cfg)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo)
	paymentService := services.NewPaymentService(paymentRepo, orderRepo, productRepo, shipmentRepo, subscriptionService, txManager)
	flagService := services.NewFeatureFlagService(flagRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, flagService)
	adminHandler := handlers.NewAdminHandler(flagService, paymentService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	v1 := app.Group("/v1")

	// Auth routes
	auth := v1.Group("/auth")
	auth.Post("/signup", middleware.AuthRateLimiter(), authHandler.Signup)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Get("/check-login-id", authHandler.CheckLoginID)
	auth.Post("/logout", middleware.AuthMiddleware(cfg), authHandler.Logout)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	auth.Put("/me", middleware.AuthMiddleware(cfg), authHandler.UpdateMe)

	// Subscription routes (authenticated)
	subscription := v1.Group("/subscription")
	subscription.Use(middleware.AuthMiddleware(cfg))
	subscription.Get("/", subscriptionHandler.Current)
	subscription.Post("/cancel", subscriptionHandler.Cancel)

	// Payment routes (authenticated)
	payments := v1.Group("/payments")
	payments.Use(middleware.AuthMiddleware(cfg))
	payments.Post("/checkout", paymentHandler.CheckoutSubscription)
	payments.Post("/shop", paymentHandler.CheckoutShop)
	payments.Get("/", paymentHandler.ListMine)

	// Admin routes (HQ admin only)
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.HQAdminOnly())
	admin.Get("/flags", adminHandler.ListFlags)
	admin.Patch("/flags/:key", adminHandler.UpdateFlag)
	admin.Get("/payments", adminHandler.ListPayments)
}
