package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/MilindPius2005/library-management-system/internal/adapters/http/middleware"
	"github.com/MilindPius2005/library-management-system/internal/adapters/http/routes"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
	"github.com/MilindPius2005/library-management-system/internal/config"
	"github.com/MilindPius2005/library-management-system/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "github.com/MilindPius2005/library-management-system/docs" // Swagger docs
)

// @title Library Circulation API
// @version 1.0
// @description Borrow and return tracking for a library: loans, fines and overdue handling.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@library.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

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

	// Seed starter catalog
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed catalog: %v", err)
	}

	// Side-effect services own lifecycle beyond a request, so they are
	// built here rather than in the route wiring
	notificationRepo := repositories.NewNotificationRepository(db)
	notifier := services.NewNotificationService(notificationRepo, cfg.Notify.WebhookURL)

	events := services.NewEventPublisher(cfg.Kafka)
	defer events.Close()

	// Start overdue sweeper on its cron schedule
	loanRepo := repositories.NewLoanRepository(db)
	sweeper := services.NewOverdueSweeper(loanRepo, notifier, events, cfg.Sweep.Schedule)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("❌ Failed to start overdue sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Library Circulation API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg, notifier, events, sweeper)

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
