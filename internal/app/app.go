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
	"time"

	"github.com/go-chi/chi/v5"

	"mentedigital/internal/config"
	apierrors "mentedigital/internal/errors"
	"mentedigital/internal/infrastructure"
	customMiddleware "mentedigital/internal/middleware"
	"mentedigital/internal/report"
	"mentedigital/internal/services"
	"mentedigital/internal/source"
	handlers "mentedigital/internal/transport/http"
)

var (
	// Version is set at build time with -ldflags
	Version = config.AppVersion
	// Commit is the VCS revision, set at build time
	Commit = ""
	// BuildTime is set at build time
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	Cache         *source.Cache
	SurveyService *services.SurveyService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication wires every component from cfg
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.String("source", cfg.Source.Kind))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up routes: %w", err)
	}
	app.createServer()

	return app, nil
}

// NewSource builds the configured survey source
func NewSource(cfg config.SourceConfig) (source.Source, error) {
	switch cfg.Kind {
	case config.SourceCSV:
		return source.NewCSVSource(cfg.URL, &http.Client{Timeout: cfg.Timeout}), nil
	case config.SourceSheets:
		return source.NewSheetsSource(cfg.SheetID, cfg.SheetRange, source.SheetsOptions{
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %q", cfg.Kind)
	}
}

// NewCachedLoader builds the loader and the snapshot cache in front of src
func NewCachedLoader(src source.Source, cfg config.SourceConfig, logger *slog.Logger, observer source.Observer) *source.Cache {
	loaderOpts := []source.LoaderOption{
		source.WithTimeout(cfg.Timeout),
		source.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
	}
	cacheOpts := []source.CacheOption{source.WithTTL(cfg.CacheTTL)}
	if observer != nil {
		loaderOpts = append(loaderOpts, source.WithObserver(observer))
		cacheOpts = append(cacheOpts, source.WithCacheObserver(observer))
	}
	return source.NewCache(source.NewLoader(src, logger, loaderOpts...), cacheOpts...)
}

// initializeServices creates the data pipeline and the services on top of it
func (a *Application) initializeServices() error {
	src, err := NewSource(a.Config.Source)
	if err != nil {
		return err
	}
	a.Cache = NewCachedLoader(src, a.Config.Source, a.Logger, a.Metrics)

	surveyCfg, err := services.SurveyConfigFrom(a.Config.Report)
	if err != nil {
		return err
	}
	renderer := report.NewRenderer(a.Logger, report.WithObserver(a.Metrics))
	a.SurveyService = services.NewSurveyService(a.Cache, renderer, surveyCfg, a.Logger,
		services.WithExportObserver(a.Metrics))

	a.HealthService = services.NewHealthService(services.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}, a.SurveyService, a.Logger)

	a.Logger.Info("Services initialized",
		slog.String("source", src.Name()),
		slog.Duration("cache_ttl", a.Config.Source.CacheTTL))
	return nil
}

// setupRouter configures the router and middleware
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development, handlers.ProblemMappings()...)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Scrape endpoint stays outside tracing, logging and rate limiting
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	var routeErr error
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		validator := customMiddleware.NewQueryValidator()
		a.setupAPIRoutes(r, validator)
		routeErr = a.setupViewRoutes(r, validator)
	})
	if routeErr != nil {
		return routeErr
	}

	a.Router = r
	return nil
}

// setupAPIRoutes mounts the JSON API
func (a *Application) setupAPIRoutes(r chi.Router, validator *customMiddleware.QueryValidator) {
	surveyHandler := handlers.NewSurveyHandler(a.SurveyService, validator, a.ErrorHandler, a.Metrics, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/survey", surveyHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
	})
}

// setupViewRoutes mounts the HTML pages
func (a *Application) setupViewRoutes(r chi.Router, validator *customMiddleware.QueryValidator) error {
	views, err := handlers.NewViewHandler(a.SurveyService, validator, a.ErrorHandler,
		a.SurveyService.Config().Location, a.Logger)
	if err != nil {
		return err
	}
	r.Get("/", views.Home)
	r.Get("/consultar", views.Query)
	r.Get("/estatisticas", views.Statistics)
	r.Get("/dados", views.Data)
	r.Get("/relatorio.pdf", views.ReportPDF)
	return nil
}

// getCORSConfig returns CORS configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
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

// Start starts the HTTP server and warms the snapshot cache. A listen
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go a.warmCache(ctx)
	return nil
}

// warmCache performs the first fetch so the first visitor does not pay for it
func (a *Application) warmCache(ctx context.Context) {
	snap := a.SurveyService.Snapshot(ctx)
	if snap.Warning != "" {
		a.Logger.WarnContext(ctx, "Initial survey fetch failed",
			slog.String("warning", snap.Warning))
		return
	}
	a.Logger.InfoContext(ctx, "Initial survey fetch complete",
		slog.Int("rows", snap.Rows),
		slog.Int("columns", len(snap.Columns)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted
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
		a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
