package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"korfarm-api/internal/adapters/http/middleware"
	"korfarm-api/internal/adapters/http/routes"
	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/config"
	"korfarm-api/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "korfarm-api/docs" // Swagger docs
)

// @title korfarm API
// @version 1.0
// @description Identity and entitlement API for the korfarm education platform

// @contact.name API Support
// @contact.email support@korfarm.com

// @host api.korfarm.com
// @BasePath /v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the headquarters org and default feature flags
	if err := config.SeedCoreData(db, cfg); err != nil {
		log.Printf("⚠️ Warning: Failed to seed core data: %v", err)
	}

	// Start cron service (refresh-token purge)
	cronService := services.NewCronService(db)
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "korfarm API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
