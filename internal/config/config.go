package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"lodge_backend/internal/database"
	"lodge_backend/pkg/utils"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port               string
	CORSAllowedOrigins []string
	Database           database.Options
	JWTSecret          string
	JWTTTL             time.Duration
	AdminUsername      string
	AdminPasswordHash  string
	Location           *time.Location
	LogLevel           string
	LogFormat          string
	TurnaroundWarning  time.Duration
}

// devJWTSecret is only used when JWT_SECRET is unset and GIN_MODE is not release.
const devJWTSecret = "lodge-backend-development-secret"

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Could not parse .env file")
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               utils.Getenv("PORT", "8080"),
		CORSAllowedOrigins: utils.SplitCSV(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		Database: database.Options{
			Driver: utils.Getenv("DB_DRIVER", database.DriverPostgres),
			Postgres: database.PostgresConfig{
				Host:     utils.Getenv("DB_HOST", "localhost"),
				Port:     utils.Getenv("DB_PORT", "5432"),
				User:     utils.Getenv("DB_USER", "lodge"),
				Password: utils.Getenv("DB_PASSWORD", "lodge"),
				Name:     utils.Getenv("DB_NAME", "lodge"),
				SSLMode:  utils.Getenv("DB_SSLMODE", "disable"),
			},
			SQLitePath: utils.Getenv("DB_PATH", "data/lodge.db"),
		},
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            utils.GetenvDuration("JWT_TTL", 72*time.Hour),
		AdminUsername:     utils.Getenv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		LogLevel:          utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:         utils.Getenv("LOG_FORMAT", "console"),
		TurnaroundWarning: utils.GetenvDuration("TURNAROUND_WARNING", 2*time.Hour),
	}

	switch cfg.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use %q or %q)", cfg.Database.Driver, database.DriverPostgres, database.DriverSQLite)
	}

	tz := utils.Getenv("APP_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if cfg.JWTSecret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			return nil, errors.New("JWT_SECRET must be set in release mode")
		}
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// LogWarnings reports settings that fall back to unsafe or disabled defaults.
func (c *Config) LogWarnings() {
	if c.JWTSecret == devJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}
	if c.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH not set, login is disabled")
	}
}
