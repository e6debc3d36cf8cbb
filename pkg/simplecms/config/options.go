package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate toggles table creation at startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithDeletePolicy sets what happens to entries when their content type is deleted
func WithDeletePolicy(policy simplecms.DeletePolicy) Option {
	return func(c *ServerConfig) error {
		if !policy.IsValid() {
			return fmt.Errorf("delete policy must be 'orphan' or 'cascade', got: %s", policy)
		}
		c.DeletePolicy = string(policy)
		return nil
	}
}

// WithArchivedTerminal makes ARCHIVED a final workflow state
func WithArchivedTerminal(terminal bool) Option {
	return func(c *ServerConfig) error {
		c.ArchivedTerminal = terminal
		return nil
	}
}

// WithStrictFieldTypes enables per-type value checks
func WithStrictFieldTypes(strict bool) Option {
	return func(c *ServerConfig) error {
		c.StrictFieldTypes = strict
		return nil
	}
}

// WithPageSizes sets the default and maximum list page sizes
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(c *ServerConfig) error {
		if defaultSize < 1 || maxSize < 1 {
			return fmt.Errorf("page sizes must be positive")
		}
		c.DefaultPageSize = defaultSize
		c.MaxPageSize = maxSize
		return nil
	}
}

// WithJWTSecret enables bearer token verification
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithCORSOrigins sets the allowed CORS origins
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSAllowedOrigins = origins
		return nil
	}
}

// WithSchedulerInterval sets how often due entries are promoted; 0 disables it
func WithSchedulerInterval(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d < 0 {
			return fmt.Errorf("scheduler interval cannot be negative")
		}
		c.SchedulerInterval = d
		return nil
	}
}

// WithSeedFile sets a YAML file of content types to create at startup
func WithSeedFile(path string) Option {
	return func(c *ServerConfig) error {
		c.SeedFile = path
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithEventSink adds an event sink to the built service
func WithEventSink(sink simplecms.EventSink) Option {
	return func(c *ServerConfig) error {
		if sink == nil {
			return fmt.Errorf("event sink cannot be nil")
		}
		c.EventSinks = append(c.EventSinks, sink)
		return nil
	}
}

// WithLogger sets the logger handed to the service
func WithLogger(logger *slog.Logger) Option {
	return func(c *ServerConfig) error {
		c.Logger = logger
		return nil
	}
}
