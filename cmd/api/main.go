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

	"github.com/analytics-dashboard-api/internal/application/report"
	"github.com/analytics-dashboard-api/internal/config"
	"github.com/analytics-dashboard-api/internal/infrastructure/dynamo"
	"github.com/analytics-dashboard-api/internal/infrastructure/ga4"
	"github.com/analytics-dashboard-api/internal/infrastructure/mail"
	redisinfra "github.com/analytics-dashboard-api/internal/infrastructure/redis"
	s3infra "github.com/analytics-dashboard-api/internal/infrastructure/s3"
	"github.com/analytics-dashboard-api/internal/infrastructure/smtp"
	"github.com/analytics-dashboard-api/internal/infrastructure/sns"
	transporthttp "github.com/analytics-dashboard-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// Redis: fast session tier, pending sessions, send limits.
	redisClient, err := redisinfra.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// GA4 Data API client.
	var analytics report.Analytics
	if client, err := ga4.NewClient(cfg); err == nil {
		analytics = client
	} else {
		log.Fatalf("GA4 client: %v", err)
	}

	// S3 asset store.
	s3Client := s3infra.NewClient(cfg)
	assetStore := s3infra.NewAssetStore(s3Client, cfg.S3BucketName)

	// Mail channels: SMTP primary, SNS topic as optional fallback.
	mailer := smtp.NewMailer(cfg)
	var backupMailer mail.Sender
	if m, err := sns.NewMailer(cfg); err == nil {
		backupMailer = m
	} else {
		log.Printf("WARN: backup mail channel not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:  dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		VersionRepo:  dynamo.NewVersionRepo(dynamoClient, cfg.DynamoTables.Versions),
		SessionCache: redisinfra.NewSessionCache(redisClient),
		PendingRepo:  redisinfra.NewPendingRepo(redisClient),
		SendLimiter:  redisinfra.NewLimiter(redisClient),
		AssetStore:   assetStore,
		Analytics:    analytics,
		Mailer:       mailer,
		BackupMailer: backupMailer,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
