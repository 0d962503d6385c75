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

	"github.com/analytics-dashboard-api/internal/config"
	"github.com/analytics-dashboard-api/internal/edge"
	redisinfra "github.com/analytics-dashboard-api/internal/infrastructure/redis"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	redisClient, err := redisinfra.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	proxy := edge.NewProxy(cfg, redisinfra.NewResponseCache(redisClient))
	router := edge.NewRouter(cfg, proxy)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.EdgePort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Edge proxy starting on :%s (origin=%s)", cfg.EdgePort, cfg.OriginURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down edge proxy...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Edge proxy stopped")
}
