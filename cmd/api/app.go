package main

import (
	"strings"
	"time"

	"quizforge/internal/adapter/provider"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/handler"
	"quizforge/internal/middleware"
	"quizforge/internal/quiz"
	"quizforge/internal/retry"
	"quizforge/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// buildApp wires the pipeline behind the HTTP routes. store may be nil.
func buildApp(cfg *config.Config, store domain.Cache, appLogger *zap.Logger) *fiber.App {
	factory := provider.NewFactory(cfg.Providers, appLogger)
	for _, kind := range domain.ProviderKinds {
		appLogger.Info("Provider registered",
			zap.String("provider", string(kind)),
			zap.Bool("configured", factory.Configured(kind)))
	}

	retrier := retry.NewController(retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	}, appLogger)
	normalizer := quiz.NewNormalizer(quiz.ParseOptionPolicy(cfg.Quiz.OptionPolicy), appLogger)

	quizService := service.NewQuizService(factory, retrier, normalizer, cfg, appLogger)
	catalogService := service.NewCatalogService(factory, store, cfg, appLogger)
	quizHandler := handler.NewQuizHandler(quizService, catalogService, version)

	app := fiber.New(fiber.Config{
		AppName:      "quizforge " + version,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
		MaxAge:       300,
	}))

	quizHandler.RegisterRoutes(app.Group("/api"), middleware.NewValidationMiddleware())
	return app
}
