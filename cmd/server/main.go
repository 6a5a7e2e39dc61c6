package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/config"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/mail"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/router"
	"github.com/yukikurage/taskflow-api/internal/services"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer,
		auth.WithBcryptCost(cfg.BcryptCost),
		auth.WithSessionTTL(cfg.SessionTokenTTL),
		auth.WithResetTTL(cfg.ResetTokenTTL),
	)
	if err != nil {
		log.Fatalf("Failed to initialize credentials: %v", err)
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// log.Fatalf skips deferred calls.
	cleanups := []func(){func() { database.Close(db) }}
	fail := func(format string, args ...interface{}) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		log.Fatalf(format, args...)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		fail("Failed to run migrations: %v", err)
	}

	resetRepo, closeLedger, err := newResetTokenRepository(cfg, db)
	if err != nil {
		fail("Failed to initialize reset token store: %v", err)
	}
	defer closeLedger()
	cleanups = append(cleanups, closeLedger)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo, resetRepo, tokens, mailer)
	userService := services.NewUserService(userRepo, tokens)
	taskService := services.NewTaskService(taskRepo)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := userService.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			fail("Failed to seed admin account: %v", err)
		}
	}

	r := router.New(router.Dependencies{
		Tokens:         tokens,
		AuthService:    authService,
		UserService:    userService,
		TaskService:    taskService,
		RequestTimeout: cfg.RequestTimeout,
		Health: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("Server starting on %s", cfg.HTTPAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Println("Shutting down server")
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Graceful shutdown error: %v", err)
	}
}

func newMailer(cfg *config.Config) (mail.Mailer, error) {
	renderer, err := mail.NewResetPasswordRenderer(cfg.BackendURL, cfg.ResetTokenTTL)
	if err != nil {
		return nil, err
	}

	if !cfg.MailEnabled() {
		log.Println("SMTP_HOST not set, reset links will be logged instead of mailed")
		return mail.NewLogMailer(renderer), nil
	}

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, renderer), nil
}

// newResetTokenRepository uses Redis when REDIS_ADDR is set and the database
// otherwise.
func newResetTokenRepository(cfg *config.Config, db *gorm.DB) (repository.ResetTokenRepository, func(), error) {
	if cfg.RedisAddr == "" {
		return repository.NewResetTokenRepository(db), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("Using Redis at %s for reset token tracking", cfg.RedisAddr)
	return repository.NewRedisResetTokenRepository(client), func() {
		if err := client.Close(); err != nil {
			log.Printf("Failed to close Redis client: %v", err)
		}
	}, nil
}
