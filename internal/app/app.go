package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pcrcli/internal/config"
	"pcrcli/internal/formats"
	"pcrcli/internal/infrastructure"
	"pcrcli/internal/middleware"
	transport "pcrcli/internal/transport/http"
	"pcrcli/internal/websocket"
)

const AppName = "pcr-export-analyzer"

// Application wires configuration, logging, telemetry, the format registry,
// and the HTTP surface together.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Registry      *formats.Registry
	WebSocketHub  *websocket.Hub
	OTelProviders *infrastructure.OTelProviders
	Router        *chi.Mux
	Server        *http.Server
}

// NewApplication builds a fully wired application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		Registry:      formats.DefaultRegistry(logger),
		WebSocketHub:  websocket.NewHub(logger),
		OTelProviders: providers,
	}
	app.setupRouter()
	app.createServer()
	return app, nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))

	metrics, err := infrastructure.CreateAnalysisMetrics(a.OTelProviders.Meter)
	if err != nil {
		a.Logger.Warn("Failed to create analysis metrics", slog.String("error", err.Error()))
	}

	analyzeHandler := transport.NewAnalyzeHandler(
		a.Registry, a.WebSocketHub, a.OTelProviders.Tracer, metrics, a.Logger)
	healthHandler := transport.NewHealthHandler(a.Registry, a.Logger)

	rateLimiter := middleware.NewRateLimiter(
		a.Config.Server.RateLimitRPS, a.Config.Server.RateLimitBurst, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Handler)
			r.Mount("/", analyzeHandler.Routes())
		})
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}
	r.Get("/ws", websocket.ServeWS(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the websocket hub and the HTTP server.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop shuts the application down gracefully.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.InfoContext(shutdownCtx, "Shutting down application")

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(shutdownCtx, "Server shutdown error", slog.String("error", err.Error()))
	}
	a.WebSocketHub.Stop()
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(shutdownCtx, "Telemetry shutdown error", slog.String("error", err.Error()))
		}
	}
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-sig:
		a.Logger.Info("Received signal", slog.String("signal", s.String()))
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
