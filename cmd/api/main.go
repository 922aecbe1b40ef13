// @title quizforge API
// @version 1.0
// @description Generates multiple-choice quizzes from source text with a choice of LLM providers.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:5000
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quizforge/internal/adapter"
	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// The catalog cache is optional; without Redis every lookup hits the server.
	var store domain.Cache
	redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	switch {
	case err != nil:
		appLogger.Warn("Redis unavailable, model catalog cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		store = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Model catalog cache enabled", zap.String("address", cfg.Redis.Address), zap.Duration("ttl", cfg.Catalog.TTL))
	}

	app := buildApp(cfg, store, appLogger)

	go func() {
		appLogger.Info("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("env", cfg.Logger.Env),
			zap.String("default_provider", cfg.Providers.Default))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
