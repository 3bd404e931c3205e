package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safetrack/internal/config"
	"safetrack/internal/handlers"
	"safetrack/internal/middleware"
	"safetrack/internal/repositories/mongodb"
	"safetrack/internal/services"
	"safetrack/pkg/cache"
	"safetrack/pkg/database"
	"safetrack/pkg/logger"
	"safetrack/pkg/sms"
	"safetrack/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongodb.EnsureIndexes(indexCtx, db.Database); err != nil {
		cancelIndexes()
		log.WithError(err).Fatal("Failed to create indexes")
	}
	cancelIndexes()

	// Cache
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database)
	contactRepo := mongodb.NewEmergencyContactRepository(db.Database)
	locationRepo := mongodb.NewLocationRepository(db.Database)

	// Outbound channels
	emailSender := services.NewSMTPEmailSender(cfg.SMTP)
	var smsProvider sms.Provider
	if cfg.SMS.Enabled {
		smsProvider = sms.NewTwilioProvider(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber)
	}
	notifier := services.NewNotificationService(emailSender, smsProvider, cfg.App.BaseURL, cfg.App.Name, cfg.Contacts.TokenExpiry, log)

	// Services
	authService := services.NewAuthService(userRepo, cfg.Security.JWTSecret, cfg.Security.JWTAccessTokenTTL, log)
	contactService := services.NewEmergencyContactService(
		contactRepo,
		userRepo,
		notifier,
		redisCache,
		cfg.Contacts.MaxContacts,
		cfg.Contacts.TokenExpiry,
		log,
	)
	locationService := services.NewLocationService(locationRepo, contactService, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	contactHandler := handlers.NewEmergencyContactHandler(contactService)
	locationHandler := handlers.NewLocationHandler(locationService)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler, cfg.Security.JWTSecret)
		routes.SetupEmergencyContactRoutes(v1, contactHandler, cfg.Security.JWTSecret)
		routes.SetupLocationRoutes(v1, locationHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
		})
	})

	// Background sweep for expired verification tokens
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runCleanupSweep(sweepCtx, contactService, cfg.Contacts.CleanupInterval, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}

// runCleanupSweep periodically expires pending contacts whose verification
// token aged out.
func runCleanupSweep(ctx context.Context, contacts services.EmergencyContactService, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if _, err := contacts.CleanupExpiredTokens(sweepCtx); err != nil {
				log.WithError(err).Error("Cleanup sweep failed")
			}
			cancel()
		}
	}
}
