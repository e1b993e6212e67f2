package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Log      LogConfig
	Library  LibraryConfig
	Notify   NotifyConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds refresh cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LibraryConfig holds circulation and reporting settings
type LibraryConfig struct {
	LoanDays       int
	FinePerDay     float64
	VisitsPerStaff float64
	LookbackDays   int
	ReportCacheTTL time.Duration
	Timezone       string
	Location       *time.Location
}

// NotifyConfig holds outbound notification and scheduled job settings
type NotifyConfig struct {
	WebhookURL   string
	Timeout      time.Duration
	ReminderCron string
	CleanupCron  string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional in production
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	library, err := loadLibraryConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Log:      loadLogConfig(appMode),
		Library:  library,
		Notify:   loadNotifyConfig(),
	}

	AppConfig = config

	log.Info().Msgf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "libradesk"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadLogConfig(mode string) LogConfig {
	format := "console"
	if mode == "prod" {
		format = "json"
	}
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", format),
	}
}

// loadLibraryConfig loads circulation settings; bad numbers fall back to defaults
func loadLibraryConfig() (LibraryConfig, error) {
	tz := getEnv("LIBRARY_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return LibraryConfig{}, fmt.Errorf("invalid LIBRARY_TIMEZONE '%s': %w", tz, err)
	}

	return LibraryConfig{
		LoanDays:       positiveInt(getEnvInt("LOAN_DAYS", 14), 14),
		FinePerDay:     getEnvFloat("FINE_PER_DAY", 1.00),
		VisitsPerStaff: getEnvFloat("VISITS_PER_STAFF", 25),
		LookbackDays:   positiveInt(getEnvInt("REPORT_LOOKBACK_DAYS", 30), 30),
		ReportCacheTTL: getEnvDuration("REPORT_CACHE_TTL", 15*time.Second),
		Timezone:       tz,
		Location:       loc,
	}, nil
}

func loadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
		Timeout:      getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		ReminderCron: getEnv("REMINDER_CRON", "30 8 * * *"),
		CleanupCron:  getEnv("TOKEN_CLEANUP_CRON", "0 3 * * *"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func positiveInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://library.example.org"
	}
	return origins
}
