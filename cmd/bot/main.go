// Package main is the entry point for the Telegram trivia bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-trivia-bot/internal/announce"
	"telegram-trivia-bot/internal/bot"
	"telegram-trivia-bot/internal/config"
	"telegram-trivia-bot/internal/handler"
	"telegram-trivia-bot/internal/message"
	"telegram-trivia-bot/internal/pkg/db"
	"telegram-trivia-bot/internal/repository"
	"telegram-trivia-bot/internal/service"
	"telegram-trivia-bot/internal/workflow"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(dbPool.Pool)
	scoreRepo := repository.NewScoreRepository(dbPool.Pool)

	// Initialize the workflow engine against the postgres-backed store
	engine := workflow.NewEngine(sessionRepo, scoreRepo)

	// Initialize bot
	triviaBot, err := bot.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Initialize announcement delivery
	announcer := announce.New(triviaBot.Telebot(), cfg.Announce.QueueSize, cfg.Announce.MaxRetries)
	announcer.Start()

	// Initialize trivia service and handlers
	messages := message.NewManager(cfg.Messages)
	triviaService := service.NewTriviaService(engine, scoreRepo, announcer, messages)
	triviaBot.RegisterHandlers(handler.NewTriviaHandler(triviaService))

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		triviaBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	triviaBot.Stop()
	announcer.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create sessions table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			channel_id TEXT PRIMARY KEY,
			controlling_user_id TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL DEFAULT '',
			stage TEXT NOT NULL,
			answers JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: sessions table created")

	// Migration 2: Create scores table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scores (
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			wins BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (channel_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_scores_channel_username ON scores(channel_id, username);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: scores table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
