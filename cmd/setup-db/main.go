// Command setup-db creates the messages schema, tables, result enum and
// notify trigger. Every statement is idempotent, so it is safe to run
// against an existing database.
package main

import (
	"context"
	"time"

	"pgmq/internal/config"
	"pgmq/internal/logger"
	"pgmq/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		l := logger.New(false)
		l.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		l := logger.New(false)
		l.Fatal().Msgf("Error loading config: %v", err)
	}
	log := logger.New(cfg.Debug)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to DB: %v", err)
	}
	defer conn.Close(context.Background())

	if err := repository.Bootstrap(ctx, conn); err != nil {
		log.Fatal().Msgf("Failed to bootstrap schema: %v", err)
	}
	log.Info().Msg("messages schema ready")
}
