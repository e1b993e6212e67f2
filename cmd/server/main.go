package main

import (
	"os"
	"os/signal"
	"syscall"

	"libradesk/internal/adapters/http/middleware"
	"libradesk/internal/adapters/http/routes"
	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/config"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	_ "libradesk/docs" // Swagger docs
)

// @title LibraDesk API
// @version 1.0
// @description Library circulation, gate visits and reporting API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@library.example.org

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Bootstrap logger until config is known
	logger.Init(logger.Config{Level: "info", Format: "console"})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to auto migrate")
	}
	log.Info().Msg("✅ Database migration completed")

	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Warning: Failed to seed database")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LibraDesk API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	container := routes.Setup(app, db, cfg)

	// Scheduled jobs: overdue reminders and refresh token cleanup
	cronService, err := services.NewCronService(container.Reports, container.Auth, container.Notify, cfg.Notify, cfg.Library.Location)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to configure scheduled jobs")
	}
	cronService.Start()
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Info().Msgf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("❌ Failed to start server")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("❌ Error during shutdown")
	}
	log.Info().Msg("✅ Server stopped gracefully")
}
