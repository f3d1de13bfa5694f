package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/instasora/user-service/internal/auth"
	"github.com/instasora/user-service/internal/config"
	httpserver "github.com/instasora/user-service/internal/http"
	"github.com/instasora/user-service/internal/notification"
	"github.com/instasora/user-service/internal/repository"
	"github.com/instasora/user-service/internal/service"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(repository.Config{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	usersRepo := repository.NewUsersRepository(db)

	hasher := auth.NewPasswordHasher(auth.Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
	})

	tokenService := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})

	// Mail dispatch if SMTP is configured
	var dispatcher *notification.Dispatcher
	var mailer service.Mailer
	if cfg.HasSMTP() {
		emailService := notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		})
		dispatcher = notification.NewDispatcher(emailService, logger, cfg.AppBaseURL, cfg.MailQueueSize)
		mailer = dispatcher
		logger.Info("email service enabled")
	}

	userService := service.NewUserService(service.Config{
		ResetTokenTTL: cfg.ResetTokenTTL,
	}, usersRepo, hasher, tokenService, mailer, logger)

	// OAuth2 providers
	providers := map[string]auth.ProviderConfig{}
	if cfg.HasGoogleOAuth() {
		providers[auth.ProviderGoogle] = auth.GoogleProvider(
			cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
		logger.Info("Google OAuth enabled")
	}
	if cfg.HasGitHubOAuth() {
		providers[auth.ProviderGitHub] = auth.GitHubProvider(
			cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURI)
		logger.Info("GitHub OAuth enabled")
	}
	var oauthService *auth.OAuth2Service
	if len(providers) > 0 {
		oauthService = auth.NewOAuth2Service(providers, 10*time.Second)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		UserService:     userService,
		TokenService:    tokenService,
		OAuth2Service:   oauthService,
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
		SecureCookies:   strings.HasPrefix(cfg.AppBaseURL, "https://"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Drain queued mail after the listener stops accepting requests
	if dispatcher != nil {
		dispatcher.Close()
	}

	logger.Info("server stopped")
}
