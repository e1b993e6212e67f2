package routes

import (
	"time"

	"libradesk/internal/adapters/http/handlers"
	"libradesk/internal/adapters/http/middleware"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/config"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/microcache"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Container holds the services the server wires outside the HTTP layer
type Container struct {
	Auth        *services.AuthService
	Reports     *services.ReportService
	Notify      *services.NotificationService
	ReportCache *microcache.Store
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Container {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	visitRepo := repositories.NewVisitRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	bookService := services.NewBookService(bookRepo)
	loanService := services.NewLoanService(loanRepo, userRepo, cfg.Library)
	visitService := services.NewVisitService(visitRepo, userRepo)
	reportService := services.NewReportService(bookRepo, loanRepo, visitRepo, userRepo, cfg.Library)
	notifyService := services.NewNotificationService(cfg.Notify)

	// Report responses live in one namespace, purged by circulation writes
	reportCache := microcache.New("reports", microcache.WithTTL(cfg.Library.ReportCacheTTL))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, notifyService, config.HealthCheck)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	bookHandler := handlers.NewBookHandler(bookService)
	loanHandler := handlers.NewLoanHandler(loanService)
	visitHandler := handlers.NewVisitHandler(visitService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	userRoutes := apiV1.Group("/users", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	profileRoutes := apiV1.Group("/profile", middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	bookRoutes := apiV1.Group("/books", middleware.InvalidateOn(reportCache))
	setupBookRoutes(bookRoutes, bookHandler, cfg)

	loanRoutes := apiV1.Group("/loans", middleware.AuthMiddleware(cfg), middleware.InvalidateOn(reportCache))
	setupLoanRoutes(loanRoutes, loanHandler)

	visitRoutes := apiV1.Group("/visits", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), middleware.InvalidateOn(reportCache))
	setupVisitRoutes(visitRoutes, visitHandler)

	reportRoutes := apiV1.Group("/reports", middleware.AuthMiddleware(cfg), middleware.StaffOnly(), middleware.ReportCache(reportCache))
	setupReportRoutes(reportRoutes, reportHandler)

	return &Container{
		Auth:        authService,
		Reports:     reportService,
		Notify:      notifyService,
		ReportCache: reportCache,
	}
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	router.Use(middleware.NoCacheHeaders())

	// Public routes with rate limiting
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupBookRoutes configures catalog routes; reads are public, writes are staff only
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, cfg *config.Config) {
	staff := []fiber.Handler{middleware.AuthMiddleware(cfg), middleware.StaffOnly()}

	router.Get("/", handler.List)
	router.Get("/export", append(staff, middleware.PrivateCacheHeaders(time.Minute), handler.Export)...)
	router.Post("/import", append(staff, middleware.StrictRateLimiter(), handler.Import)...)
	router.Get("/:id", handler.Get)

	router.Post("/", append(staff, handler.Create)...)
	router.Put("/:id", append(staff, handler.Update)...)
	router.Delete("/:id", append(staff, handler.Delete)...)
}

// setupLoanRoutes configures circulation routes (Authenticated)
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	// Members
	router.Get("/me", handler.Mine)
	router.Get("/:id", handler.Get)

	// Desk
	router.Get("/", middleware.StaffOnly(), handler.List)
	router.Post("/", middleware.StaffOnly(), handler.Checkout)
	router.Post("/:id/return", middleware.StaffOnly(), handler.Return)
}

// setupVisitRoutes configures gate routes (Staff only)
func setupVisitRoutes(router fiber.Router, handler *handlers.VisitHandler) {
	router.Get("/", handler.ListRecent)
	router.Post("/", handler.CheckIn)
	router.Post("/checkout", handler.CheckOutVisitor)
	router.Post("/:id/checkout", handler.CheckOut)
}

// setupReportRoutes configures report routes (Staff only, cached)
func setupReportRoutes(router fiber.Router, handler *handlers.ReportHandler) {
	router.Get("/top-borrowers", handler.TopBorrowers)
	router.Get("/genre-trends", handler.GenreTrends)
	router.Get("/underutilized", handler.Underutilized)
	router.Get("/fines", handler.Fines)
	router.Get("/usage", handler.Usage)
	router.Get("/staffing", handler.Staffing)
	router.Get("/summary", handler.Summary)
}
