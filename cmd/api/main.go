package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/shopworks/storeapi/internal/auth"
	"github.com/shopworks/storeapi/internal/config"
	"github.com/shopworks/storeapi/internal/database"
	"github.com/shopworks/storeapi/internal/email"
	httpServer "github.com/shopworks/storeapi/internal/http"
	"github.com/shopworks/storeapi/internal/logging"
	"github.com/shopworks/storeapi/internal/post"
	"github.com/shopworks/storeapi/internal/ratelimit"
	"github.com/shopworks/storeapi/internal/token"
	"github.com/shopworks/storeapi/internal/upload"
	"github.com/shopworks/storeapi/internal/user"
)

// @title           Store API
// @version         1.0
// @description     E-commerce style REST API with token authentication, email confirmation, posts, comments, likes, and file upload.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	storage, err := upload.NewS3Storage(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	// Repositories
	userRepo := user.NewRepository(db)
	postRepo := post.NewRepository(db)

	// Token subsystem: codec, issuer, verifier share one config-injected secret
	codec := token.NewCodec(cfg.Auth.SecretKey)
	issuer := token.NewIssuer(codec, cfg.Auth.AccessTokenTTL, cfg.Auth.ConfirmationTokenTTL)
	verifier := token.NewVerifier(codec)

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	authService := auth.NewService(
		userRepo,
		auth.NewBcryptHasher(0),
		issuer,
		verifier,
		emailService,
		logger,
	)

	rateLimiter := ratelimit.NewLimiter(redisClient)

	// HTTP handlers
	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	authMiddleware := auth.NewMiddleware(authService)
	postHandler := post.NewHandler(postRepo, logger)
	uploadHandler := upload.NewHandler(storage, logger)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, postHandler, uploadHandler, logger)

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
