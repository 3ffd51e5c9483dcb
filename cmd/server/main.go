package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/transfer-backend/internal/adapter/httpapi"
	"github.com/ledgerline/transfer-backend/internal/adapter/repository/memory"
	"github.com/ledgerline/transfer-backend/internal/adapter/withdrawal"
	"github.com/ledgerline/transfer-backend/internal/queue"
	"github.com/ledgerline/transfer-backend/internal/usecase/account"
	"github.com/ledgerline/transfer-backend/internal/usecase/transfer"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultQueueCapacity     = 1024
	defaultWithdrawalLatency = 2 * time.Second
)

func main() {
	// 1. Logger
	logger, err := buildLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Initialize Repositories (in-memory)
	accountStore := memory.NewAccountStore()
	transactionStore := memory.NewTransactionStore()

	// 3. Withdrawal client (simulated external system)
	simulator := withdrawal.NewSimulator(envDuration("WITHDRAWAL_LATENCY", defaultWithdrawalLatency))

	// 4. Admission queue and services
	q := queue.New(envInt("QUEUE_CAPACITY", defaultQueueCapacity), logger)

	transferService := transfer.NewService(accountStore, transactionStore, simulator, q, transfer.Config{
		WithdrawalPollInterval: envDuration("WITHDRAWAL_POLL_INTERVAL", 0),
		WithdrawalDeadline:     envDuration("WITHDRAWAL_DEADLINE", 0),
	}, logger)
	accountService := account.NewService(accountStore)

	// 5. HTTP server
	app := fiber.New(fiber.Config{
		AppName:               "transfer-backend",
		DisableStartupMessage: true,
	})
	httpapi.NewHandler(transferService, accountService, transactionStore, logger).Register(app)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = defaultHTTPAddr
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting HTTP first, then drain the queue so
	// admitted transfers still complete.
	waitForShutdown(app, q, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and shuts the server down gracefully
func waitForShutdown(app *fiber.App, q *queue.Queue, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))

	if err := app.Shutdown(); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	q.Shutdown()
	logger.Info("Server stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = parsed
	}

	return cfg.Build()
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}

	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}

	return value
}
