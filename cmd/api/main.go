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

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/background"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/config"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/database"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/handlers"
	middlewareCustom "github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/middleware"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/repositories"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/routes"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/services"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/stream"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
	pkghttp "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/http"
	pkglogger "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db.Pool); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)
	noteRepo := repositories.NewInternalNoteRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Token + TOTP managers
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	var totpManager *auth.TOTPManager
	if len(cfg.Auth.MFAEncryptionKey) > 0 {
		totpManager, err = auth.NewTOTPManager(cfg.Auth.MFAEncryptionKey, cfg.Auth.MFAIssuer)
		if err != nil {
			logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("MFA_ENCRYPTION_KEY not set, staff MFA disabled")
	}

	// Live update hub for tracking and dashboard websockets
	hub := stream.NewHub(logger)
	defer hub.Close()

	// Audit trail: structured log plus database row
	auditService := services.NewAuditService(auditRepo, pkglogger.NewAuditLogger(logger), logger)

	// AWS SES assignment notifications, optional
	var emailSender services.EmailSender
	if cfg.Email.Enabled {
		sesService, err := services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.TrackingURL,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		emailSender = sesService
	} else {
		logger.Info("email notifications disabled")
	}

	// Initialize services
	complaintService := services.NewComplaintService(complaintRepo, noteRepo, userRepo, auditService, hub, emailSender, logger)
	trackingService := services.NewTrackingService(complaintRepo, logger)
	authService := services.NewAuthService(userRepo, tokenManager, totpManager, revokeRepo, auditService, logger)
	userService := services.NewUserService(userRepo, revokeRepo, auditService, logger)
	mfaService := services.NewMFAService(userRepo, totpManager, auditService, logger)
	exportService := services.NewExportService(complaintRepo, userRepo, auditService, logger)

	// Initialize handlers
	var ipConfig *pkghttp.IPConfig
	if len(cfg.Server.TrustedProxies) > 0 {
		ipConfig = &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	}

	h := routes.Handlers{
		Complaints:      handlers.NewComplaintHandler(complaintService),
		Tracking:        handlers.NewTrackingHandler(trackingService, hub, logger),
		DashboardStream: handlers.NewDashboardStreamHandler(hub, logger),
		Auth:            handlers.NewAuthHandler(authService, ipConfig),
		Users:           handlers.NewUserHandler(userService),
		MFA:             handlers.NewMFAHandler(mfaService),
		Export:          handlers.NewExportHandler(exportService),
		Audit:           handlers.NewAuditHandler(auditService),
	}

	// Bootstrap first admin user if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootCancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env, cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)

	routes.RegisterRoutes(router, h, tokenManager, userRepo, revokeRepo, db, logger)

	// Periodic cleanup of expired token rows and aged audit entries
	cleanupManager := background.NewCleanupManager(revokeRepo, auditRepo, logger, cfg.Auth.CleanupInterval, cfg.Auth.AuditRetentionDays)

	// Create server. No blanket write timeout: the tracking and dashboard
	// websockets are long-lived.
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Admin",
		Role:         "admin",
		Status:       "active",
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
