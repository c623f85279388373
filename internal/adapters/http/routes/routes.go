package routes

import (
	"github.com/MilindPius2005/library-management-system/internal/adapters/http/handlers"
	"github.com/MilindPius2005/library-management-system/internal/adapters/http/middleware"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
	"github.com/MilindPius2005/library-management-system/internal/config"
	"github.com/MilindPius2005/library-management-system/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application. The notifier, event
// publisher and sweeper are built in main because they own lifecycle
// (cron schedule, Kafka writer) beyond a single request.
func Setup(
	app *fiber.App,
	db *gorm.DB,
	cfg *config.Config,
	notifier services.Notifier,
	events services.EventPublisher,
	sweeper *services.OverdueSweeper,
) {
	// Initialize repositories
	loanRepo := repositories.NewLoanRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize services
	loanService := services.NewCirculationService(
		loanRepo,
		inventoryRepo,
		uow,
		notifier,
		events,
		cfg.Circulation,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	loanHandler := handlers.NewLoanHandler(loanService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	sweepHandler := handlers.NewSweepHandler(sweeper)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, loanHandler, notificationHandler, sweepHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	loanHandler *handlers.LoanHandler,
	notificationHandler *handlers.NotificationHandler,
	sweepHandler *handlers.SweepHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Loan routes (Authenticated users)
	loanRoutes := router.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	setupLoanRoutes(loanRoutes, loanHandler)

	// Notification routes (Authenticated users)
	notificationRoutes := router.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	notificationRoutes.Get("/", notificationHandler.ListMine)

	// Admin routes (Officer/Admin only)
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.OfficerOrAdmin())
	adminRoutes.Post("/sweep", sweepHandler.Run)
}

// setupLoanRoutes configures circulation routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	// Mutations are rate limited per client
	router.Post("/borrow", middleware.BorrowRateLimiter(), handler.Borrow)
	router.Post("/return", middleware.BorrowRateLimiter(), handler.Return)

	// Reads
	router.Get("/my", handler.GetMyLoans)
	router.Get("/history", handler.GetHistory)
}
