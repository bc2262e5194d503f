package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codequest-hq/tournament-engine/bracket"
	"github.com/codequest-hq/tournament-engine/config"
	"github.com/codequest-hq/tournament-engine/db"
	"github.com/codequest-hq/tournament-engine/execution"
	"github.com/codequest-hq/tournament-engine/handlers"
	"github.com/codequest-hq/tournament-engine/live"
	"github.com/codequest-hq/tournament-engine/middleware"
	"github.com/codequest-hq/tournament-engine/repositories"
	api "github.com/codequest-hq/tournament-engine/routes"
	"github.com/codequest-hq/tournament-engine/services"
	"github.com/codequest-hq/tournament-engine/storage"
	"github.com/codequest-hq/tournament-engine/taskqueue"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewR2Uploader(storage.R2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Клиент внешнего bracket-сервиса
	bracketClient, err := bracket.NewChallongeClient(bracket.ChallongeConfig{
		BaseURL: cfg.BracketAPIBaseURL,
		APIKey:  cfg.BracketAPIKey,
		Timeout: cfg.BracketTimeout,
	})
	if err != nil {
		logger.Error("failed to initialize bracket service client", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("bracket service client initialized")

	// Клиент compute-бэкенда, исполняющего матчи
	executionClient, err := execution.NewClient(execution.ClientConfig{
		EnqueueURL: cfg.ExecutionEnqueueURL,
		AuthToken:  cfg.ExecutionAuthToken,
	})
	if err != nil {
		logger.Error("failed to initialize execution client", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("execution client initialized")

	// Планировщик публикационных задач (Cloud Tasks)
	scheduler, err := taskqueue.NewCloudTasksScheduler(context.Background(), taskqueue.CloudTasksConfig{
		Project:             cfg.TaskQueueProject,
		Location:            cfg.TaskQueueLocation,
		Queue:               cfg.TaskQueueName,
		ServiceAccountEmail: cfg.TaskServiceAccountEmail,
	})
	if err != nil {
		logger.Error("failed to initialize cloud tasks scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("cloud tasks scheduler initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(
		txRunner,
		tournamentRepo,
		teamRepo,
		roundRepo,
		bracketClient,
		uploader,
		wsHub,
		logger,
	)
	roundService := services.NewRoundService(
		txRunner,
		roundRepo,
		matchRepo,
		tournamentRepo,
		bracketClient,
		executionClient,
		wsHub,
		logger,
	)
	resultService := services.NewResultService(
		roundRepo,
		matchRepo,
		tournamentRepo,
		bracketClient,
		scheduler,
		wsHub,
		cfg.PublishCallbackBaseURL,
		logger,
	)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	roundHandler := handlers.NewRoundHandler(roundService, resultService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	taskAuthenticator := middleware.NewTaskAuthenticator(cfg.TaskServiceAccountEmail)
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		taskAuthenticator,
		tournamentHandler,
		roundHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
