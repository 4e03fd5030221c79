package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-pitch-api/internal/config"
	"github.com/noah-isme/gema-pitch-api/internal/database"
	"github.com/noah-isme/gema-pitch-api/internal/handler"
	"github.com/noah-isme/gema-pitch-api/internal/middleware"
	"github.com/noah-isme/gema-pitch-api/internal/models"
	"github.com/noah-isme/gema-pitch-api/internal/repository"
	"github.com/noah-isme/gema-pitch-api/internal/router"
	"github.com/noah-isme/gema-pitch-api/internal/service"
	"github.com/noah-isme/gema-pitch-api/pkg/ai"
	cloud "github.com/noah-isme/gema-pitch-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.DatabaseCredential)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Application{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var scorer ai.PitchScorer
	if cfg.ScorerConfigured() {
		scorer, err = ai.NewOpenAIPitchScorer(ai.OpenAIConfig{
			APIKey:      cfg.AIAPIKey,
			BaseURL:     cfg.AIGatewayURL,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
			Timeout:     cfg.AIRequestTimeout,
			Logger:      logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai scorer: %v", err)
		}
	} else {
		logger.Warn().Msg("PITCH_AI_API_KEY is not set, evaluations will fail until it is configured")
	}

	if cfg.CompetitionRoundStart.IsZero() {
		logger.Warn().Msg("PITCH_COMPETITION_ROUND_START is not set, the early submission bonus is disabled")
	}

	options := []service.ApplicationEvaluationOption{}

	if redisClient != nil {
		options = append(options, service.WithEvaluationLocker(
			service.NewRedisEvaluationLocker(redisClient, cfg.EvaluationLockTTL, logger),
		))
	}

	if redisClient != nil || natsConn != nil {
		options = append(options, service.WithScoreNotifier(
			service.NewBrokerScoreNotifier(redisClient, natsConn, cfg.EventChannel, logger),
		))
	} else {
		options = append(options, service.WithScoreNotifier(service.NewLogScoreNotifier(logger)))
	}

	videoConfig := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryVideoFolder,
	}
	if videoConfig.Configured() {
		videos, err := cloud.New(videoConfig, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		options = append(options, service.WithVideoResolver(videos))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	applicationRepo := repository.NewApplicationRepository(db)
	evaluationService := service.NewApplicationEvaluationService(
		applicationRepo,
		scorer,
		service.ApplicationEvaluationConfig{RoundStart: cfg.CompetitionRoundStart},
		logger,
		options...,
	)
	evaluationHandler := handler.NewApplicationEvaluationHandler(evaluationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  cfg.AIRequestTimeout + 30*time.Second,
		WriteTimeout: cfg.AIRequestTimeout + 30*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: true})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		EvaluationLimiter: router.EvaluationLimiter(cfg),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
