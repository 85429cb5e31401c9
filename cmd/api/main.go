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
	"github.com/rs/zerolog"

	"github.com/codacad/debug-coach-api/internal/config"
	"github.com/codacad/debug-coach-api/internal/database"
	"github.com/codacad/debug-coach-api/internal/handler"
	"github.com/codacad/debug-coach-api/internal/middleware"
	"github.com/codacad/debug-coach-api/internal/models"
	"github.com/codacad/debug-coach-api/internal/repository"
	"github.com/codacad/debug-coach-api/internal/router"
	"github.com/codacad/debug-coach-api/internal/service"
	"github.com/codacad/debug-coach-api/pkg/ai"
	dockerexec "github.com/codacad/debug-coach-api/pkg/docker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Problem{},
		&models.Submission{},
		&models.HelpReport{},
		&models.ChatMessage{},
		&models.PracticeQuestion{},
		&models.PracticeAnswer{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Drain()

	coach, err := buildCoach(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create AI coach: %v", err)
	}

	executor, err := dockerexec.NewDockerExecutor(dockerexec.Config{
		Host:          cfg.DockerHost,
		Timeout:       cfg.ExecutionTimeout,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("failed to create docker executor: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	problemRepo := repository.NewProblemRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	helpRepo := repository.NewHelpRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)

	practiceService := service.NewPracticeService(practiceRepo, submissionRepo, problemRepo, coach, redisClient, validate, logger, service.PracticeConfig{
		QuestionCount:     cfg.PracticeCount,
		GenerationTimeout: cfg.AnalysisTimeout,
		GeneratingTTL:     cfg.HelpJobTTL,
	})
	submissionService := service.NewSubmissionService(problemRepo, submissionRepo, practiceRepo, practiceService, executor, redisClient, validate, logger, service.SubmissionConfig{
		ExecutionTimeout: cfg.ExecutionTimeout,
		MemoryLimitMB:    cfg.CodeRunMemoryMB,
		CPUShares:        cfg.CodeRunCPUShares,
	})
	helpService := service.NewHelpService(helpRepo, submissionRepo, problemRepo, coach, redisClient, natsConn, validate, logger, service.HelpConfig{
		AnalysisTimeout: cfg.AnalysisTimeout,
		JobMarkerTTL:    cfg.HelpJobTTL,
	})
	studentCodeService := service.NewStudentCodeService(problemRepo, submissionRepo, practiceRepo, redisClient, logger, service.StudentCodeConfig{
		CacheTTL: cfg.SnapshotCacheTTL,
	})
	problemService := service.NewProblemService(problemRepo, logger)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := helpService.Start(shutdownCtx); err != nil {
		log.Fatalf("failed to start help subscriber: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		HelpHandler:        handler.NewHelpHandler(helpService, logger),
		PracticeHandler:    handler.NewPracticeHandler(practiceService, logger),
		StudentCodeHandler: handler.NewStudentCodeHandler(studentCodeService, logger),
		ProblemHandler:     handler.NewProblemHandler(problemService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(shutdownCtx, app)
}

func buildCoach(cfg config.Config, logger zerolog.Logger) (ai.Coach, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return ai.NewAnthropicCoach(ai.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AIModel,
		})
	default:
		return ai.NewOpenAICoach(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
	}
}

func waitForShutdown(shutdownCtx context.Context, app *fiber.App) {
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
