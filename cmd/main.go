package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorhub/config"
	"mentorhub/controller"
	_ "mentorhub/docs" // Import for swagger
	"mentorhub/handler"
	"mentorhub/migrations"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/mailer"
	"mentorhub/repository"
	"mentorhub/service"
	"mentorhub/validator"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
)

// @title MentorHub API
// @version 1.0
// @description Backend for the MentorHub mentor matching platform: e-mail verification and password reset via one-time codes, onboarding profiles, progress tracking, trait assessments and mentor matching
// @contact.name API Support
// @contact.email support@mentorhub.local
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter JWT Bearer token in format: Bearer {token}
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Mode)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Infow("Starting MentorHub API",
		"version", "1.0.0",
		"port", cfg.HTTPServer.Port,
		"log_level", cfg.Logger.Level,
		"log_mode", cfg.Logger.Mode,
	)

	// Connect to database
	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	log.Infow("Database connected successfully",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	// Run migrations
	if err := migrations.RunMigrations(db.DB, "./migrations"); err != nil {
		log.Fatalw("Failed to run database migrations", "error", err)
	}

	log.Infow("Database migrations completed successfully")

	// Initialize validator
	v := validator.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)

	// The issuance limiter can count from the otps table itself or from
	// Redis. Redis is only dialed when selected.
	var redisClient *redis.Client
	var rateLimitRepo repository.RateLimitRepository
	if cfg.RateLimit.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalw("Failed to connect to Redis", "error", err)
		}

		log.Infow("Redis connected successfully", "host", cfg.Redis.Host, "port", cfg.Redis.Port)
		rateLimitRepo = repository.NewRedisRateLimitRepository(redisClient, cfg, log)
	} else {
		rateLimitRepo = repository.NewPostgresRateLimitRepository(otpRepo)
	}

	// Initialize mailer
	mail := mailer.NewFromConfig(cfg, log)

	// Initialize services
	clock := service.SystemClock()
	otpService := service.NewOTPService(otpRepo, rateLimitRepo, cfg, log, clock)
	jwtService := service.NewJWTService(cfg, log, clock)
	authService := service.NewAuthService(userRepo, otpService, jwtService, mail, cfg, log)
	userService := service.NewUserService(userRepo, log)
	profileService := service.NewProfileService(profileRepo, log)
	progressService := service.NewProgressService(progressRepo, userRepo, log)
	assessmentService := service.NewAssessmentService(assessmentRepo, log)
	matchService := service.NewMatchService(assessmentRepo, log)

	// Initialize controllers
	controllers := handler.Controllers{
		Health:     controller.NewHealthController(db, redisClient),
		Auth:       controller.NewAuthController(authService, v, log),
		User:       controller.NewUserController(userService, log),
		Profile:    controller.NewProfileController(profileService, v, log),
		Progress:   controller.NewProgressController(progressService, v, log),
		Assessment: controller.NewAssessmentController(assessmentService, v, log),
		Match:      controller.NewMatchController(matchService, log),
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Register routes
	handler.RegisterRoutes(e, controllers, jwtService, cfg, log)

	// Schedule the housekeeping sweep
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Cleanup.Schedule, func() {
		if err := otpService.CleanupExpiredOTPs(); err != nil {
			log.Errorw("Failed to clean up finished codes", "error", err)
		}
	}); err != nil {
		log.Fatalw("Failed to schedule cleanup", "schedule", cfg.Cleanup.Schedule, "error", err)
	}
	sweeper.Start()
	log.Infow("Cleanup sweep scheduled", "schedule", cfg.Cleanup.Schedule, "retention", cfg.Cleanup.Retention)

	// Start server in a goroutine
	serverAddr := fmt.Sprintf(":%d", cfg.HTTPServer.Port)
	go func() {
		log.Infow("Starting HTTP server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Infow("Shutting down server gracefully...")

	// Create a deadline for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Application.GracefulShutdownTimeout)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Failed to shutdown server gracefully", "error", err)
		os.Exit(1)
	}

	// Let a running sweep finish before exiting
	select {
	case <-sweeper.Stop().Done():
	case <-shutdownCtx.Done():
	}

	log.Infow("Server shutdown completed successfully")
}

func connectDB(cfg *config.Config) (*sqlx.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	var db *sqlx.DB
	var err error

	// Retry connection up to 30 times with 1 second delay
	for i := 0; i < 30; i++ {
		db, err = sqlx.Connect("postgres", connStr)
		if err == nil {
			// Test connection
			if err = db.Ping(); err == nil {
				break
			}
			db.Close()
		}

		if i == 0 {
			fmt.Printf("Waiting for database to be ready...\n")
		}
		fmt.Printf("Database connection attempt %d/30 failed: %v\n", i+1, err)
		time.Sleep(1 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
