// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-trivia-bot/internal/config"
	"telegram-trivia-bot/internal/handler"
)

// Bot wraps the telebot instance with application configuration.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config
}

// New creates a new Bot instance. Handlers are registered separately via
// RegisterHandlers once the services that need the bot (the announcer)
// have been wired up.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:     cfg.Bot.Token,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeMarkdown,
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{bot: teleBot, cfg: cfg}, nil
}

// RegisterHandlers registers middleware and all command handlers.
func (b *Bot) RegisterHandlers(trivia *handler.TriviaHandler) {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())

	b.bot.Handle("/game", trivia.HandleGame)
	b.bot.Handle("/stopgame", trivia.HandleStopGame)
	b.bot.Handle("/join", trivia.HandleJoin)
	b.bot.Handle("/question", trivia.HandleQuestion)
	b.bot.Handle("/answer", trivia.HandleAnswer)
	b.bot.Handle("/pass", trivia.HandlePass)
	b.bot.Handle("/correct", trivia.HandleCorrect)
	b.bot.Handle("/incorrect", trivia.HandleIncorrect)
	b.bot.Handle("/status", trivia.HandleStatus)
	b.bot.Handle("/scores", trivia.HandleScores)

	// Score resets are destructive; admins only.
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/resetscores", trivia.HandleResetScores)
}

// Telebot returns the underlying telebot instance.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
