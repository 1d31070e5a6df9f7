package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simts-edu/casesim-service/internal/cache"
	"github.com/simts-edu/casesim-service/internal/config"
	"github.com/simts-edu/casesim-service/internal/events"
	"github.com/simts-edu/casesim-service/internal/generator"
	"github.com/simts-edu/casesim-service/internal/generator/gemini"
	"github.com/simts-edu/casesim-service/internal/generator/openai"
	"github.com/simts-edu/casesim-service/internal/handlers"
	"github.com/simts-edu/casesim-service/internal/repositories/postgres"
	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
	"github.com/simts-edu/casesim-service/internal/validator"
	"github.com/simts-edu/casesim-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		logger.Error("Failed to migrate schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	cacheService := cache.NewRedisCache(redisClient, logger)

	var publisher events.EventPublisher
	kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       slogLogger,
	})
	if err != nil {
		logger.Warn("Kafka unavailable, events will not be published", "error", err)
		publisher = events.NewMockEventPublisher(slogLogger)
	} else {
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	engine := selectEngine(cfg)
	if engine == nil {
		logger.Warn("No LLM API key configured, generation endpoints will fail")
	}

	v := validator.New()

	caseRepo := postgres.NewCasePostgreSQL(db)
	collectionRepo := postgres.NewCollectionPostgreSQL(db)
	studentRepo := postgres.NewStudentPostgreSQL(db)
	sessionRepo := postgres.NewSessionPostgreSQL(db)

	caseService := services.NewCaseService(caseRepo, cacheService, publisher, slogLogger, v)
	generationService := services.NewGenerationService(engine, caseService, publisher, slogLogger, v, cfg.GenerationTimeout)
	authService := services.NewAuthService(studentRepo, services.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
		TeacherUsername: cfg.TeacherUsername,
		TeacherPassword: cfg.TeacherPassword,
	}, slogLogger, v)
	sessionService := services.NewSessionService(sessionRepo, caseRepo, publisher, slogLogger, v)
	collectionService := services.NewCollectionService(collectionRepo, caseRepo, slogLogger, v)
	statsService := services.NewStatisticsService(caseRepo, sessionRepo, studentRepo, cacheService, slogLogger)
	exportService := services.NewExportService(caseService, slogLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	manager := handlers.NewHandlerManager(handlers.RouterDeps{
		DB:         db,
		Auth:       authService,
		Generation: generationService,
		Cases:      caseService,
		Sessions:   sessionService,
		Collection: collectionService,
		Stats:      statsService,
		Export:     exportService,
		Logger:     logger,
	})
	manager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

// selectEngine prefers OpenAI when both providers are configured.
func selectEngine(cfg *config.Config) generator.Engine {
	if cfg.OpenAIAPIKey != "" {
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if cfg.GeminiAPIKey != "" {
		return gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return nil
}
