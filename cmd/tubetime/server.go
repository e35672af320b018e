package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/tubetime/internal/api"
	"github.com/goodtune/tubetime/internal/budget"
	"github.com/goodtune/tubetime/internal/config"
	"github.com/goodtune/tubetime/internal/metrics"
	"github.com/goodtune/tubetime/internal/selection"
	"github.com/goodtune/tubetime/internal/session"
	"github.com/goodtune/tubetime/internal/storage"
	"github.com/goodtune/tubetime/internal/storage/bolt"
	"github.com/goodtune/tubetime/internal/storage/redis"
	"github.com/goodtune/tubetime/internal/storage/sqlite"
	"github.com/goodtune/tubetime/internal/systemd"
	"github.com/goodtune/tubetime/internal/warning"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start TubeTime server",
	Long:  `Start the TubeTime server with the kiosk API and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting TubeTime")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get systemd listeners")
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Build the session service on the real clock
	svc := buildService(cfg, store, budget.UTCClock{}, logger)

	logger.Info().
		Int("daily_limit_minutes", cfg.Limits.DailyLimitMinutes).
		Int("grid_size", cfg.Limits.GridSize).
		Msg("Session service initialized")

	// Initialize API Server
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(apiAddr, svc, store, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API Server: %w", err)
	}

	logger.Info().
		Str("addr", apiAddr).
		Msg("API Server started")

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start Metrics Server: %w", err)
	}

	logger.Info().
		Str("addr", metricsAddr).
		Msg("Metrics Server started")

	// Log startup complete
	logger.Info().Msg("TubeTime startup complete")
	logger.Info().Msgf("API: http://%s:%d/api/v1", cfg.Server.BindAddress, cfg.Server.APIPort)
	logger.Info().Msgf("Metrics: http://%s:%d/metrics", cfg.Server.BindAddress, cfg.Server.MetricsPort)

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Signal handling loop
	for {
		sig := <-sigChan

		switch sig {
		case syscall.SIGHUP:
			// Parent-facing settings live in storage and are re-read on every
			// computation; server/storage changes need a restart.
			logger.Info().Msg("SIGHUP received; runtime settings are read from storage, restart to apply config file changes")
			continue

		case os.Interrupt, syscall.SIGTERM:
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
			// Break out of loop to shutdown
		}

		// Only reached on shutdown signals
		break
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	// Stop servers
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping API Server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping Metrics Server")
	}

	logger.Info().Msg("TubeTime stopped")

	return nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "bolt"
	}

	switch storageType {
	case "bolt":
		return bolt.Open(cfg.Path)
	case "sqlite":
		return sqlite.Open(context.Background(), cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected bolt, sqlite, or redis)", storageType)
	}
}

// buildService wires the calculator, warning recorder, and selector into a
// session service. Shared by the server and check commands.
func buildService(cfg *config.Config, store storage.Store, clock budget.Clock, logger zerolog.Logger) *session.Service {
	defaults := storage.Settings{
		DailyLimitMinutes: cfg.Limits.DailyLimitMinutes,
		GridSize:          cfg.Limits.GridSize,
	}

	calc := budget.NewCalculator(store.Ledger(), store.Settings(), defaults, clock, logger)
	recorder := warning.NewRecorder(store.Warnings(), logger)
	selector := selection.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())))

	return session.New(store, calc, recorder, selector, clock, logger)
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
