package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig lists every variable WithEnv understands. Fields are pre-filled
// from the current config, so unset variables leave values unchanged.
type envConfig struct {
	Port               string        `env:"PORT" env-description:"HTTP listen port"`
	Environment        string        `env:"ENVIRONMENT" env-description:"development, production or testing"`
	DatabaseURL        string        `env:"DATABASE_URL" env-description:"memory or postgres://..."`
	DBSchema           string        `env:"DB_SCHEMA" env-description:"Postgres schema"`
	AutoMigrate        bool          `env:"DB_AUTO_MIGRATE" env-description:"create tables on startup"`
	DeletePolicy       string        `env:"CONTENT_TYPE_DELETE_POLICY" env-description:"orphan or cascade"`
	ArchivedTerminal   bool          `env:"ARCHIVED_TERMINAL" env-description:"forbid transitions out of ARCHIVED"`
	StrictFieldTypes   bool          `env:"STRICT_FIELD_TYPES" env-description:"check values against their field type"`
	DefaultPageSize    int           `env:"DEFAULT_PAGE_SIZE" env-description:"list page size when limit is absent"`
	MaxPageSize        int           `env:"MAX_PAGE_SIZE" env-description:"upper bound for limit"`
	SchedulerInterval  time.Duration `env:"SCHEDULER_INTERVAL" env-description:"due entry promotion period, 0 disables"`
	JWTSecret          string        `env:"JWT_SECRET" env-description:"HS256 secret; empty disables auth"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-description:"comma separated origins"`
	SeedFile           string        `env:"SEED_FILE" env-description:"YAML content types applied at startup"`
	EventLogging       bool          `env:"EVENT_LOGGING" env-description:"log lifecycle events"`
}

// WithEnv applies environment variable overrides.
//
// DATABASE_URL selects the repository: "memory" for the in-memory store, or a
// postgres:// / postgresql:// URL.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		env := envConfig{
			Port:               c.Port,
			Environment:        c.Environment,
			DBSchema:           c.DBSchema,
			AutoMigrate:        c.AutoMigrate,
			DeletePolicy:       c.DeletePolicy,
			ArchivedTerminal:   c.ArchivedTerminal,
			StrictFieldTypes:   c.StrictFieldTypes,
			DefaultPageSize:    c.DefaultPageSize,
			MaxPageSize:        c.MaxPageSize,
			SchedulerInterval:  c.SchedulerInterval,
			JWTSecret:          c.JWTSecret,
			CORSAllowedOrigins: c.CORSAllowedOrigins,
			SeedFile:           c.SeedFile,
			EventLogging:       c.EnableEventLogging,
		}
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.DatabaseURL != "" {
			if err := applyDatabaseURL(env.DatabaseURL, c); err != nil {
				return err
			}
		}

		c.Port = env.Port
		c.Environment = env.Environment
		c.DBSchema = env.DBSchema
		c.AutoMigrate = env.AutoMigrate
		c.DeletePolicy = strings.ToLower(env.DeletePolicy)
		c.ArchivedTerminal = env.ArchivedTerminal
		c.StrictFieldTypes = env.StrictFieldTypes
		c.DefaultPageSize = env.DefaultPageSize
		c.MaxPageSize = env.MaxPageSize
		c.SchedulerInterval = env.SchedulerInterval
		c.JWTSecret = env.JWTSecret
		c.CORSAllowedOrigins = env.CORSAllowedOrigins
		c.SeedFile = env.SeedFile
		c.EnableEventLogging = env.EventLogging
		return nil
	}
}

// applyDatabaseURL auto-detects the database type from the URL.
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
	return nil
}

// EnvUsage describes the variables read by WithEnv.
func EnvUsage() (string, error) {
	return cleanenv.GetDescription(&envConfig{}, nil)
}
