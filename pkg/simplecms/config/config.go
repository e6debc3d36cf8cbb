package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
	repopg "github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		DBSchema:           "cms",
		AutoMigrate:        true,
		DeletePolicy:       string(simplecms.DeleteOrphan),
		DefaultPageSize:    10,
		MaxPageSize:        100,
		SchedulerInterval:  time.Minute,
		CORSAllowedOrigins: []string{"*"},
		EnableEventLogging: true,
	}
}

// ServerConfig represents configuration for the simple-cms service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: cms)
	AutoMigrate  bool   // create tables on startup (postgres only)

	// Content policies
	DeletePolicy     string // "orphan", "cascade"
	ArchivedTerminal bool
	StrictFieldTypes bool

	// API
	DefaultPageSize    int
	MaxPageSize        int
	JWTSecret          string
	CORSAllowedOrigins []string

	// Background work
	SchedulerInterval time.Duration // 0 disables the promoter
	SeedFile          string

	EnableEventLogging bool
	EventSinks         []simplecms.EventSink
	Logger             *slog.Logger

	pool *pgxpool.Pool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if !simplecms.DeletePolicy(c.DeletePolicy).IsValid() {
		return fmt.Errorf("delete policy must be 'orphan' or 'cascade', got: %s", c.DeletePolicy)
	}

	if c.DefaultPageSize < 1 || c.MaxPageSize < 1 {
		return errors.New("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default page size %d exceeds max page size %d", c.DefaultPageSize, c.MaxPageSize)
	}

	if c.SchedulerInterval < 0 {
		return errors.New("scheduler interval cannot be negative")
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *ServerConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simplecms.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	options := []simplecms.Option{
		simplecms.WithRepository(repo),
		simplecms.WithLogger(c.logger()),
		simplecms.WithDeletePolicy(simplecms.DeletePolicy(c.DeletePolicy)),
		simplecms.WithArchivedTerminal(c.ArchivedTerminal),
		simplecms.WithStrictFieldTypes(c.StrictFieldTypes),
	}

	sinks := append([]simplecms.EventSink(nil), c.EventSinks...)
	if c.EnableEventLogging {
		sinks = append(sinks, simplecms.NewLoggingEventSink(c.logger()))
	}
	if len(sinks) > 0 {
		options = append(options, simplecms.WithEventSink(simplecms.NewMultiEventSink(sinks...)))
	}

	return simplecms.New(options...)
}

// Close releases the database pool opened by BuildService, if any.
func (c *ServerConfig) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (simplecms.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := c.openPool(ctx)
		if err != nil {
			return nil, err
		}
		repo := repopg.NewWithPool(pool)
		if c.AutoMigrate {
			if c.DBSchema != "" {
				if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{c.DBSchema}.Sanitize()); err != nil {
					pool.Close()
					return nil, fmt.Errorf("failed to create schema %s: %w", c.DBSchema, err)
				}
			}
			if err := repo.Migrate(ctx); err != nil {
				pool.Close()
				return nil, err
			}
		}
		c.pool = pool
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}
