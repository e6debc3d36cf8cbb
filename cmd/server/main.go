package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/api"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/metrics"
	"github.com/tendant/simple-cms/pkg/simplecms/scheduler"
	"github.com/tendant/simple-cms/pkg/simplecms/seed"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink, err := metrics.NewSink(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	cfg.Logger = logger
	cfg.EventSinks = append(cfg.EventSinks, sink)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := cfg.BuildService(ctx)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer cfg.Close()

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, svc, cfg.SeedFile, logger); err != nil {
			return err
		}
	}

	promoter := scheduler.NewPromoter(svc, cfg.SchedulerInterval, scheduler.WithLogger(logger))
	promoter.Start(ctx)
	defer promoter.Stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, svc, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Simple CMS server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"delete_policy", cfg.DeletePolicy,
			"auth", cfg.JWTSecret != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.IsDevelopment() {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func applySeed(ctx context.Context, svc simplecms.Service, path string, logger *slog.Logger) error {
	file, err := seed.Load(path)
	if err != nil {
		return err
	}
	report, err := seed.Apply(ctx, svc, file)
	if err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	logger.Info("Seed applied", "file", path, "created", report.Created, "skipped", report.Skipped)
	return nil
}

// newHandler wires middleware, the content API, admin routes, and metrics.
func newHandler(cfg *config.ServerConfig, svc simplecms.Service, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	accessLog := httplog.NewLogger("simple-cms", httplog.Options{
		JSON:            !cfg.IsDevelopment(),
		LogLevel:        slog.LevelInfo,
		Concise:         true,
		RequestHeaders:  false,
		QuietDownRoutes: []string{"/api/status", "/metrics"},
		QuietDownPeriod: 30 * time.Second,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router := api.NewRouter(svc,
		api.WithLogger(logger),
		api.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize),
	)
	ja := api.NewJWTAuth(cfg.JWTSecret)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/admin", router.AdminRoutes(ja))
	r.Mount("/", router.Routes(ja))
	return r
}
