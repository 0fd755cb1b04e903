package main

import (
	"context"
	"os/signal"
	"syscall"

	"pgmq/internal/config"
	"pgmq/internal/logger"
	"pgmq/internal/pgnotify"
	"pgmq/internal/repository"
	"pgmq/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		l := logger.New(false)
		l.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(false)
		l.Fatal().Msgf("Error loading config: %v", err)
	}

	log := logger.New(cfg.Debug).With().Str("worker_id", uuid.NewString()).Logger()

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One persistent connection for the worker's whole lifetime: it carries
	// the LISTEN subscription and every query the worker runs.
	log.Info().Msg("connecting to db")
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to DB: %v", err)
	}
	defer conn.Close(context.Background())

	listener := pgnotify.New(conn, cfg.Channel)
	if err := listener.Listen(ctx); err != nil {
		log.Fatal().Msgf("Failed to subscribe to channel %q: %v", cfg.Channel, err)
	}
	log.Info().Str("channel", cfg.Channel).Msg("subscribed to notification channel")

	w := worker.New(
		repository.NewMessageRepo(conn),
		worker.SimEngine{},
		listener,
		cfg.Channel,
		cfg.LockDuration(),
		cfg.HandledBy,
		log,
	)

	if err := w.Run(ctx); err != nil {
		log.Fatal().Msgf("Worker failed: %v", err)
	}
	log.Info().Msg("worker stopped gracefully")
}
