package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/cryptic/delivery-user-service/internal/handlers"
	"github.com/cryptic/delivery-user-service/internal/idempotency"
	"github.com/cryptic/delivery-user-service/internal/mailer"
	"github.com/cryptic/delivery-user-service/internal/repository"
	"github.com/cryptic/delivery-user-service/internal/service"
	"github.com/cryptic/delivery-user-service/pkg/auth"
	"github.com/cryptic/delivery-user-service/pkg/config"
	"github.com/cryptic/delivery-user-service/pkg/database"
	"github.com/cryptic/delivery-user-service/pkg/events"
	"github.com/cryptic/delivery-user-service/pkg/logger"
	mw "github.com/cryptic/delivery-user-service/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	idemStore, err := idempotency.NewRedisStore(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer idemStore.Close()

	// Token material is fixed for the process lifetime
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	userRepo := repository.NewUserRepository(pool)
	driverRepo := repository.NewDriverRepository(pool)
	hasher := service.NewArgonHasher()
	mail := newMailer(cfg)

	authService := service.NewAuthService(userRepo, driverRepo, hasher, tokens, mail, eventBus)
	userService := service.NewUserService(userRepo, hasher, eventBus)
	driverService := service.NewDriverService(driverRepo, userRepo, eventBus)

	h := handlers.New(authService, userService, driverService, tokens)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("user-service"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)

	r.Route("/auth", func(r chi.Router) {
		r.With(mw.Idempotency(idemStore)).Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.RequireJWT())
		r.Get("/{id}", h.GetUser)
		r.Patch("/{id}", h.UpdateUser)
		r.Post("/{id}/password", h.ChangePassword)

		// Admin-only account management
		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("ADMIN"))
			r.Get("/", h.ListUsers)
			r.Get("/email/{email}", h.GetUserByEmail)
			r.Patch("/{id}/status", h.UpdateUserStatus)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	r.Route("/drivers", func(r chi.Router) {
		r.Use(h.RequireJWT())
		r.Get("/", h.ListDrivers)
		r.Get("/available", h.ListAvailableDrivers)
		r.Get("/{id}", h.GetDriver)
		r.Get("/user/{userID}", h.GetDriverByUserID)
		r.Patch("/{id}/status", h.UpdateDriverStatus)

		// Order lifecycle is driven by the order service and admins
		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("ADMIN"))
			r.Post("/{id}/orders", h.AssignOrder)
			r.Post("/{id}/orders/complete", h.CompleteOrder)
			r.Patch("/{id}/rating", h.UpdateDriverRating)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down user service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("User service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting user service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("User service error", "error", err)
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS,
		)
	}
}
