package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/contactbook/contactbook-go/internal/avatar"
	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/config"
	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/handler"
	"github.com/contactbook/contactbook-go/internal/mailer"
	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
	"github.com/contactbook/contactbook-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	defer userCache.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userCache.Ping(startupCtx); err != nil {
		cancelStartup()
		slog.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	uploader, err := avatar.NewS3Uploader(startupCtx, avatar.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	cancelStartup()
	if err != nil {
		slog.Error("avatar storage setup failed", "error", err)
		os.Exit(1)
	}

	issuer := crypto.NewIssuer(cfg.JWTSecret, "contactbook")
	sender := mailer.NewSMTPSender(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailFrom, cfg.BaseURL)

	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	authService := service.NewAuthService(userRepo, userCache, issuer, sender, service.TokenTTLs{
		Access:  cfg.AccessTTL,
		Refresh: cfg.RefreshTTL,
		Verify:  cfg.VerifyTTL,
		Reset:   cfg.ResetTTL,
	})
	contactService := service.NewContactService(contactRepo)
	userService := service.NewUserService(userRepo, userCache, uploader)

	authHandler := handler.NewAuthHandler(authService)
	contactHandler := handler.NewContactHandler(contactService)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db, userCache)

	authn := middleware.NewAuthenticator(issuer, userCache, userRepo)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler.Handle)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/api/auth/register", authHandler.HandleRegister)
		r.Post("/api/auth/login", authHandler.HandleLogin)
		r.Post("/api/auth/refresh", authHandler.HandleRefresh)
		r.Get("/api/auth/confirm/{token}", authHandler.HandleConfirmEmail)
		r.Post("/api/auth/resend-verification", authHandler.HandleResendVerification)
		r.Post("/api/auth/reset-request", authHandler.HandleResetRequest)
		r.Post("/api/auth/reset/{token}", authHandler.HandleResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Authenticate)

		r.Post("/api/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			// 5 requests per minute, matching the profile endpoint limit.
			r.Use(middleware.RateLimit(5.0/60.0, 5))
			r.Get("/api/users/me", userHandler.HandleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireRole(model.RoleAdmin))
			r.Patch("/api/users/avatar", userHandler.HandleUpdateAvatar)
			r.Patch("/api/users/{user_id}/role", userHandler.HandleUpdateRole)
		})

		r.Get("/api/contacts", contactHandler.HandleList)
		r.Post("/api/contacts", contactHandler.HandleCreate)
		r.Get("/api/contacts/search", contactHandler.HandleSearch)
		r.Get("/api/contacts/birthdays", contactHandler.HandleBirthdays)
		r.Get("/api/contacts/{contact_id}", contactHandler.HandleGet)
		r.Put("/api/contacts/{contact_id}", contactHandler.HandleUpdate)
		r.Delete("/api/contacts/{contact_id}", contactHandler.HandleDelete)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
