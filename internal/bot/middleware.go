// Package bot provides middleware for the Telegram bot.
package bot

import (
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-trivia-bot/internal/config"
)

// WhitelistMiddleware creates a middleware that ignores updates from
// chats outside the configured whitelist. An empty whitelist allows all
// chats.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil || c.Sender() == nil {
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			return next(c)
		}
	}
}

// LoggingMiddleware logs every handled command with its chat and sender.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if msg := c.Message(); msg != nil && c.Sender() != nil {
				log.Debug().
					Int64("chat_id", msg.Chat.ID).
					Int64("user_id", c.Sender().ID).
					Str("text", msg.Text).
					Msg("Handling command")
			}
			return next(c)
		}
	}
}

// AdminMiddleware restricts a handler group to configured admin users.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !cfg.IsAdmin(sender.ID) {
				return c.Reply("This command is restricted to admins.")
			}

			return next(c)
		}
	}
}
