package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/config"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/dataset"
	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/exporter"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/infrastructure"
	customMiddleware "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/middleware"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/services"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
	handlers "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.BusinessMetrics
	Snapshot       *dataset.Snapshot
	FeatureService *services.FeatureService
	HealthService  *services.HealthService
	ErrorHandler   *apierrors.ErrorHandler
	Router         *chi.Mux
	Server         *http.Server
}

// NewApplication loads configuration and logging from the environment and
// builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component around cfg. The dataset is loaded eagerly; a
// dataset that cannot be read or parsed is returned as an error.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	ctx := context.Background()

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("data_path", cfg.Data.Path))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, err
	}

	if err := app.setupRouter(); err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, err
	}

	app.createServer()
	return app, nil
}

// initializeServices loads the dataset and builds the services on top of it
func (a *Application) initializeServices(ctx context.Context) error {
	snapshot, err := dataset.Open(ctx, a.Config.Data.Path, a.Config.Data.DateLayout, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load dataset %s: %w", a.Config.Data.Path, err)
	}
	a.Snapshot = snapshot
	a.Metrics.RecordDataset(ctx, snapshot.Entities.NumCustomers(), snapshot.Entities.NumLoans())

	calendar, err := primitives.NewHolidayCalendar(a.Config.Features.Holiday)
	if err != nil {
		return fmt.Errorf("failed to build holiday calendar: %w", err)
	}
	catalog := primitives.Builtin(calendar)
	synthesizer := synthesis.NewSynthesizer(catalog, a.Config.Features.Parallelism, a.Logger)

	a.FeatureService = services.NewFeatureService(snapshot, synthesizer, a.Config.Features, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(snapshot, a.Logger)

	a.Logger.InfoContext(ctx, "Services initialized",
		slog.Int("primitives", catalog.Count()),
		slog.String("holiday_calendar", calendar.Name()),
		slog.Int("customers", snapshot.Entities.NumCustomers()),
		slog.Int("loans", snapshot.Entities.NumLoans()))
	return nil
}

// setupRouter configures the HTTP router with all routes and middleware
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// request ID first so every later layer can log it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OTel middleware: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(infrastructure.WithComponent(a.Logger, "http")))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			)
			r.Use(limiter.Handler)
		}

		r.Use(customMiddleware.BodyLimit(config.MaxBodyBytes))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json"))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		a.setupAPIRoutes(r)
	})

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

// setupAPIRoutes mounts the health and feature endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.HealthService,
		infrastructure.WithComponent(a.Logger, "health_handler"))
	r.Get("/", healthHandler.Welcome)
	r.Get("/status", healthHandler.Status)
	r.Get("/version", healthHandler.Version)
	r.Route("/health", func(r chi.Router) {
		r.Get("/ready", healthHandler.ReadinessCheck)
		r.Get("/live", healthHandler.LivenessCheck)
	})

	handlerLogger := infrastructure.WithComponent(a.Logger, "feature_handler")
	featureHandler := handlers.NewFeatureHandler(
		a.FeatureService,
		exporter.New(a.Logger),
		customMiddleware.NewValidator(a.Logger),
		a.ErrorHandler,
		a.Config.Features.MaxDepthLimit,
		handlerLogger,
	)
	r.Mount("/features", featureHandler.Routes())
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			customMiddleware.RequestIDHeader,
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start serves in the background. A listener failure cancels ctx through
// cancel so Run can shut down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr),
		slog.String("dataset", a.Snapshot.Source))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the listener fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(ctx)
}
