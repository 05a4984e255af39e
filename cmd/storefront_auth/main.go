package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront_auth/internal/auth"
	"storefront_auth/internal/config"
	confirmReset "storefront_auth/internal/http_server/handlers/confirm_reset"
	"storefront_auth/internal/http_server/handlers/login"
	"storefront_auth/internal/http_server/handlers/logout"
	"storefront_auth/internal/http_server/handlers/me"
	"storefront_auth/internal/http_server/handlers/refresh"
	"storefront_auth/internal/http_server/handlers/register"
	requestReset "storefront_auth/internal/http_server/handlers/request_reset"
	resendEmail "storefront_auth/internal/http_server/handlers/resend_verification_email"
	"storefront_auth/internal/http_server/handlers/verify"
	"storefront_auth/internal/lib/jwt"
	sl "storefront_auth/internal/lib/logger"
	"storefront_auth/internal/middleware/authgate"
	rateLimit "storefront_auth/internal/middleware/ratelimit"
	"storefront_auth/internal/rabbitmq"
	mongoStorage "storefront_auth/internal/storage/mongo"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting storefront auth service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := mongoStorage.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect mongo", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close(context.Background())

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	codec, err := jwt.New(cfg.Tokens)
	if err != nil {
		log.Error("failed to init token codec", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(log, storage, storage, codec, msgBroker, cfg.AppURL)

	router := setupRouter(log, authService, codec, cfg)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	codec *jwt.Codec,
	cfg *config.Config,
) *chi.Mux {
	validate := validator.New()
	secureCookies := cfg.Env == envProd

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Шлюз стоит перед всеми маршрутами; не попавшие под защищенные
	// префиксы запросы он пропускает нетронутыми.
	r.Use(authgate.New(log, codec, secureCookies))

	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimit.Register()).Post("/register",
			register.New(log, validate, authService),
		)
		r.With(rateLimit.Login()).Post("/login",
			login.New(log, validate, authService, codec.AccessTTL(), codec.RefreshTTL(), secureCookies),
		)
		r.With(rateLimit.Refresh()).Post("/refresh",
			refresh.New(log, authService, codec.AccessTTL(), codec.RefreshTTL(), secureCookies),
		)
		r.With(rateLimit.Logout()).Post("/logout",
			logout.New(log, authService, secureCookies),
		)
		r.With(rateLimit.Verify()).Post("/verify",
			verify.New(log, validate, authService),
		)
		r.With(rateLimit.ResendVerificationEmail()).Put("/verify",
			resendEmail.New(log, validate, authService),
		)
		r.With(rateLimit.RequestReset()).Post("/reset-password",
			requestReset.New(log, validate, authService),
		)
		r.With(rateLimit.ConfirmReset()).Put("/reset-password",
			confirmReset.New(log, validate, authService),
		)
	})

	r.Get("/api/users/me", me.New(log))

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
