package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Внешний bracket-сервис
	BracketAPIBaseURL string
	BracketAPIKey     string
	BracketTimeout    time.Duration

	// Compute-бэкенд, исполняющий матчи
	ExecutionEnqueueURL string
	ExecutionAuthToken  string

	// Очередь задач (Cloud Tasks) для асинхронной публикации результатов
	TaskQueueProject        string
	TaskQueueLocation       string
	TaskQueueName           string
	TaskServiceAccountEmail string
	PublishCallbackBaseURL  string

	// Cloudflare R2 (медиа турниров)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		JWTSecretKey:            os.Getenv("JWT_SECRET_KEY"),
		BracketAPIBaseURL:       getEnvOrDefault("BRACKET_API_BASE_URL", "https://api.challonge.com/v2/"),
		BracketAPIKey:           os.Getenv("BRACKET_API_KEY"),
		ExecutionEnqueueURL:     os.Getenv("EXECUTION_ENQUEUE_URL"),
		ExecutionAuthToken:      os.Getenv("EXECUTION_AUTH_TOKEN"),
		TaskQueueProject:        os.Getenv("TASK_QUEUE_PROJECT"),
		TaskQueueLocation:       os.Getenv("TASK_QUEUE_LOCATION"),
		TaskQueueName:           os.Getenv("TASK_QUEUE_NAME"),
		TaskServiceAccountEmail: os.Getenv("TASK_SERVICE_ACCOUNT_EMAIL"),
		PublishCallbackBaseURL:  os.Getenv("PUBLISH_CALLBACK_BASE_URL"),
		R2AccountID:             os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:           os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:       os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:            os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:         os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.BracketAPIKey == "" {
		return nil, fmt.Errorf("BRACKET_API_KEY environment variable is not set")
	}

	portStr := getEnvOrDefault("SERVER_PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	timeoutStr := getEnvOrDefault("BRACKET_API_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BRACKET_API_TIMEOUT environment variable: %w", err)
	}
	cfg.BracketTimeout = timeout

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
