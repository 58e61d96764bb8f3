package cmd

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

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/auth"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/observability/metrics"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/observability/tracing"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport/middleware"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport/rest"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport/swagger"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func setupLogger(cfg *internal.Config) *slog.Logger {
	logger.Setup(cfg.Env, logger.Options{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})
	return logger.LoggerWrapper()
}

func startHTTPServer() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := swagger.Load(ctx); err != nil {
		return err
	}

	shutdownTracing, err := tracing.Init(ctx, lg, tracing.Options{
		Enabled:      cfg.Observability.Tracing.Enabled,
		ServiceName:  cfg.Observability.Tracing.ServiceName,
		Environment:  cfg.Env,
		Endpoint:     cfg.Observability.Tracing.Endpoint,
		SamplingRate: cfg.Observability.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	app, err := newApp(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
		metrics.Subscribe(app.Bus)
	}

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)
	go limiter.Run(ctx)

	access := user.NewAccess(app.Users)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:       auth.NewHandler(app.Auth),
		RBAC:       auth.NewRBACAuthorization(lg),
		User:       user.NewHandler(app.Users, access),
		Attendance: attendance.NewHandler(app.Attendance, access),
		Leave:      leave.NewHandler(app.Leave, access),
		Health:     rest.NewHealthHandler(app.Checks),
	}, rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		AuthLimiter:    limiter,
		MetricsPath:    metricsPath,
		Tracing:        cfg.Observability.Tracing.Enabled,
		ServiceName:    cfg.Observability.Tracing.ServiceName,
	}, lg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("Starting HTTP server", "address", addr, "driver", cfg.Database.Driver)
		serverErrChan <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	if err := app.Bus.Drain(shutdownCtx); err != nil {
		lg.Error("Event handlers did not drain", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Error("Tracing shutdown error", "error", err)
	}
	if err := app.Close(shutdownCtx); err != nil {
		lg.Error("Database close error", "error", err)
	}

	lg.Info("Server stopped")
	return serveErr
}
