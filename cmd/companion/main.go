// Fitz Companion server: HTTP API for the concierge dashboard, the
// auto-close timer and the transport refresh jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/thefitz/companion/pkg/api"
	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/autoclose"
	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/database"
	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/lifecycle"
	"github.com/thefitz/companion/pkg/masking"
	"github.com/thefitz/companion/pkg/messaging"
	"github.com/thefitz/companion/pkg/metrics"
	"github.com/thefitz/companion/pkg/services"
	"github.com/thefitz/companion/pkg/timeline"
	"github.com/thefitz/companion/pkg/transport"
	"github.com/thefitz/companion/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	createStaff := flag.String("create-staff", "",
		"Create a staff account (\"Name <email>\"), password from STAFF_PASSWORD, then exit")
	staffRole := flag.String("staff-role", "staff", "Role of the account made by -create-staff")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	httpPort := getEnv("HTTP_PORT", getEnv("PORT", "3001"))

	slog.Info("Starting Fitz Companion",
		"version", version.GitCommit,
		"http_port", httpPort,
		"config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize database (applies pending migrations)
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	if *createStaff != "" {
		if err := runCreateStaff(ctx, services.NewStaffService(dbClient.DB()), *createStaff, *staffRole); err != nil {
			slog.Error("Failed to create staff account", "error", err)
			os.Exit(1)
		}
		return
	}

	// 3. Domain services
	db := dbClient.DB()
	ticketService := services.NewTicketService(db)
	guestService := services.NewGuestService(db)
	noteService := services.NewNoteService(db)
	messageLog := services.NewMessageLogService(db)
	transportStore := services.NewTransportService(db)
	storageService := services.NewStorageService(db)
	staffService := services.NewStaffService(db)
	warningsService := services.NewSystemWarningsService()
	jobMetrics := metrics.NewJobMetrics()
	slog.Info("Services initialized")

	// 4. Change notifications: NOTIFY publisher plus a dedicated LISTEN
	// connection feeding the SSE broker. Falls back to in-process delivery
	// when the listener cannot start.
	broker := events.NewBroker()
	var publisher events.Publisher = events.NewNotifyPublisher(db)
	notifyListener := events.NewNotifyListener(dbConfig.DSN(), broker)
	if err := notifyListener.Start(ctx); err != nil {
		slog.Warn("Failed to start NotifyListener, using in-process events", "error", err)
		warningsService.Add("events", "listener", "Live updates are limited to this instance", err.Error())
		publisher = events.NewMemoryPublisher(broker)
	} else {
		defer notifyListener.Stop(ctx)
	}
	publisher = events.Counted(publisher, jobMetrics.RecordChangeEvent)

	// 5. Auto-close timer
	timerStore, closeRedis, err := newTimerStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize auto-close store", "error", err)
		os.Exit(1)
	}
	if closeRedis != nil {
		defer closeRedis()
	}
	timerManager := autoclose.NewManager(cfg.AutoClose, timerStore, autoclose.SystemClock(), metrics.NewAutoCloseMetrics())
	timerManager.SetWarnings(warningsService)
	controller := lifecycle.NewController(ticketService, timerManager, publisher)
	controller.Bind(timerManager)

	restored, err := controller.Restore(ctx)
	if err != nil {
		// Non-fatal: confirmed tickets re-arm when next opened
		slog.Error("Failed to restore auto-close timers", "error", err)
	} else {
		slog.Info("Auto-close timers restored", "armed", restored)
	}
	timerManager.Start(ctx)
	defer timerManager.Stop()

	// 6. Messaging: a channel without credentials runs in demo mode
	msgOpts := messaging.Options{
		Metrics:   jobMetrics,
		Publisher: publisher,
		Warnings:  warningsService,
		Masker:    masking.NewService(),
	}
	if key := cfg.ResendAPIKey(); key != "" {
		msgOpts.Email = messaging.NewResendSender(key, cfg.Messaging.EmailFrom)
	}
	if token := cfg.TelegramToken(); token != "" {
		msgOpts.Telegram = messaging.NewTelegramSender(token, &http.Client{Timeout: cfg.Transport.RequestTimeout})
	}
	messenger := messaging.NewService(guestService, messageLog, msgOpts)

	// 7. Transport cache and refresh jobs
	refreshOpts := transport.RefresherOptions{
		Rail:      transport.NewIrishRailClient(cfg.Transport.RailURL, &http.Client{Timeout: cfg.Transport.RequestTimeout}),
		Metrics:   jobMetrics,
		Warnings:  warningsService,
		Publisher: publisher,
	}
	if key := cfg.GoogleMapsKey(); key != "" {
		provider, err := transport.NewGoogleMapsProvider(key)
		if err != nil {
			slog.Error("Failed to initialize Google Maps client", "error", err)
			os.Exit(1)
		}
		refreshOpts.Traffic = provider
	} else {
		warningsService.Add("transport", "traffic", "Live traffic disabled", "no Google Maps API key configured")
	}
	refresher := transport.NewRefresher(cfg.Transport, transportStore, refreshOpts)
	refresher.Start(ctx)
	defer refresher.Stop()

	// 8. Create HTTP server
	tokens := auth.NewTokenIssuer(cfg.JWTSecret(), cfg.Auth.TokenTTL)
	httpServer := api.NewServer(cfg, api.Dependencies{
		DB:          dbClient,
		Tickets:     ticketService,
		Lifecycle:   controller,
		Timers:      timerManager,
		Guests:      guestService,
		Timeline:    timeline.NewService(ticketService, guestService, cfg.Location, cfg.Timeline.DelayThreshold),
		Notes:       noteService,
		Messages:    messenger,
		Transport:   transport.NewService(cfg.Transport, transportStore, guestService),
		Refresher:   refresher,
		Storage:     storageService,
		Auth:        auth.NewService(staffService, tokens),
		Tokens:      tokens,
		Broker:      broker,
		Publisher:   publisher,
		Warnings:    warningsService,
		HTTPMetrics: metrics.NewHTTPMetrics(),
	})

	// 9. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Fitz Companion started successfully",
		"auto_close_store", cfg.AutoClose.Store,
		"email_demo_mode", messenger.DemoMode("email"),
		"telegram_demo_mode", messenger.DemoMode("telegram"))

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 11. Graceful shutdown. Deferred stops run after the HTTP server has
	// drained, so no request can arm a timer on a stopped manager.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// runCreateStaff adds a staff account from a "Name <email>" address.
func runCreateStaff(ctx context.Context, staff *services.StaffService, address, role string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid -create-staff value %q: %w", address, err)
	}
	password := os.Getenv("STAFF_PASSWORD")
	if len(password) < 8 {
		return fmt.Errorf("STAFF_PASSWORD must be at least 8 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := staff.Create(ctx, parsed.Name, parsed.Address, hash, role)
	if err != nil {
		return err
	}
	slog.Info("Staff account created", "staff_id", created.ID, "email", created.Email, "role", created.Role)
	return nil
}

// newTimerStore returns the configured auto-close store and, for Redis, a
// function closing the client.
func newTimerStore(ctx context.Context, cfg *config.Config) (autoclose.Store, func(), error) {
	if cfg.AutoClose.Store != config.AutoCloseStoreRedis {
		slog.Warn("Auto-close timers kept in memory; countdowns reset on restart")
		return autoclose.NewMemoryStore(), nil, nil
	}
	store, client, err := autoclose.NewRedisStoreFromURL(ctx, cfg.RedisURL())
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Auto-close timers kept in Redis", "key_prefix", cfg.AutoClose.KeyPrefix)
	return store, closeClient(client), nil
}

func closeClient(client *redis.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			slog.Error("Error closing redis client", "error", err)
		}
	}
}
