package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"keuangan/internal/amqp"
	"keuangan/internal/config"
	applog "keuangan/internal/log"
)

// keuangan-worker consumes the transaction events the API publishes and
// writes them out as an audit trail. It runs as a separate process so a
// slow or unavailable broker never blocks the request path.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentAMQP)
	applog.SetDefault(logger)

	logger.Info("Starting keuangan-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A handler error requeues the delivery, so the audit record is not
	// lost to a transient failure.
	err = client.ConsumeTransactionRecorded(ctx, func(msg *amqp.TransactionRecordedMessage) error {
		logger.Info("Transaction recorded",
			"transaksi_id", msg.TransactionID,
			"user_id", msg.UserID,
			"tipe", msg.Tipe,
			"timestamp", msg.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped")
}
