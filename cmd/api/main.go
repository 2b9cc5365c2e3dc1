package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/zombar/recipebox"
	"github.com/zombar/recipebox/api"
	"github.com/zombar/recipebox/db"
	"github.com/zombar/recipebox/docparse"
	"github.com/zombar/recipebox/storage"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("recipebox service initializing", "version", "1.0.0")

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultStoragePath := getEnv("STORAGE_BASE_PATH", "./storage")
	defaultMaxRetries := getEnv("FETCH_MAX_RETRIES", "3")
	defaultMaxConcurrent := getEnv("FETCH_MAX_CONCURRENT", "5")

	maxRetries, err := strconv.Atoi(defaultMaxRetries)
	if err != nil || maxRetries < 1 {
		logger.Warn("invalid FETCH_MAX_RETRIES value, using default",
			"provided", defaultMaxRetries,
			"default", 3,
		)
		maxRetries = 3
	}

	maxConcurrent, err := strconv.Atoi(defaultMaxConcurrent)
	if err != nil || maxConcurrent < 1 {
		logger.Warn("invalid FETCH_MAX_CONCURRENT value, using default",
			"provided", defaultMaxConcurrent,
			"default", 5,
		)
		maxConcurrent = 5
	}

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	httpTimeout := flag.Duration("http-timeout", 30*time.Second, "Timeout for outbound recipe fetches")
	retryDelay := flag.Duration("retry-delay", time.Second, "Base delay between fetch retries")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	// PostgreSQL database configuration (required)
	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "recipebox")
	dbPassword := getEnv("DB_PASSWORD", "recipebox_dev_pass")
	dbName := getEnv("DB_NAME", "recipebox")

	dbConfig := db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	}
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	extractorConfig := recipebox.DefaultConfig()
	extractorConfig.HTTPTimeout = *httpTimeout
	extractorConfig.RetryDelay = *retryDelay
	extractorConfig.MaxRetries = maxRetries
	extractorConfig.MaxConcurrent = maxConcurrent

	config := api.Config{
		Addr:            ":" + *port,
		DBConfig:        dbConfig,
		ExtractorConfig: extractorConfig,
		DocumentConfig:  docparse.DefaultConfig(),
		StorageConfig:   storage.Config{BasePath: defaultStoragePath},
		CORSEnabled:     !*disableCORS,
	}

	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server in a goroutine
	go func() {
		logger.Info("recipebox service starting",
			"port", *port,
			"database_host", dbHost,
			"database_name", dbName,
			"storage_path", defaultStoragePath,
			"http_timeout", httpTimeout.String(),
			"max_retries", maxRetries,
			"max_concurrent", maxConcurrent,
		)

		if err := server.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
