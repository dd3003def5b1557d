package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billwave/billwave/internal"
	"github.com/billwave/billwave/internal/billing"
	"github.com/billwave/billwave/internal/email"
	"github.com/billwave/billwave/internal/handler"
	"github.com/billwave/billwave/internal/handler/webhook"
	"github.com/billwave/billwave/internal/messaging"
	"github.com/billwave/billwave/internal/middleware"
	"github.com/billwave/billwave/internal/pdf"
	"github.com/billwave/billwave/internal/postgres"
	"github.com/billwave/billwave/internal/router"
	"github.com/billwave/billwave/internal/routes"
	"github.com/billwave/billwave/internal/service"
	"github.com/billwave/billwave/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	invoiceStore := postgres.NewInvoiceStore(pool)
	userStore := postgres.NewUserStore(pool)

	// Initialize file storage and PDF renderer
	files, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "provider", cfg.Storage.Provider)

	renderer := pdf.NewService(files)

	// Initialize WhatsApp messaging provider
	var msgProvider messaging.Provider
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		msgProvider, err = messaging.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
		if err != nil {
			return fmt.Errorf("failed to initialize Twilio provider: %w", err)
		}
		logger.Info("Twilio messaging provider initialized", "from", cfg.Twilio.From)
	} else {
		msgProvider = messaging.NewMockProvider()
		logger.Warn("Twilio credentials not set, WhatsApp messages will not be delivered")
	}

	// Initialize email sender
	var mailSender email.Sender
	if cfg.Email.Host != "" {
		mailSender = email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
		logger.Info("SMTP email sender initialized", "host", cfg.Email.Host)
	} else {
		mailSender = email.NewStubSender(logger)
		logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
	}

	// Initialize Stripe billing provider
	var billingProvider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		billingProvider = billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, logger)
		logger.Info("Stripe billing provider initialized")
	} else {
		billingProvider = billing.NewMockProvider()
		logger.Warn("STRIPE_SECRET_KEY not set, checkout sessions will be mocked")
	}

	// Initialize services
	invoiceService := service.NewInvoiceService(invoiceStore, renderer, files, logger)
	notificationService := service.NewNotificationService(invoiceStore, msgProvider, mailSender, logger)
	userService := service.NewUserService(userStore, logger)
	paymentService := service.NewPaymentService(invoiceService, billingProvider, cfg.Stripe.ClientURL, logger)

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("billwave")

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.CORS([]string{cfg.Stripe.ClientURL}),
		middleware.WithPrincipal(userStore),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	staticDir := ""
	if cfg.Storage.Provider == "local" || cfg.Storage.Provider == "" {
		staticDir = cfg.Storage.LocalPath
	}

	routes.Register(r, routes.Deps{
		Invoices:      handler.NewInvoiceHandler(invoiceService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Auth:          handler.NewAuthHandler(userService),
		Payments:      handler.NewPaymentHandler(paymentService),
		StripeWebhook: webhook.NewStripeHandler(billingProvider, paymentService, logger),
		Metrics:       metrics,
		StaticDir:     staticDir,
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
