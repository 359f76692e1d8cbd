// Package message selects the bot's response phrasing. Each event type has
// a list of templates; one is picked at random per response so the bot
// doesn't repeat itself verbatim. Lists come from configuration, with
// built-in defaults for anything left unset.
package message

import (
	"fmt"
	"math/rand"

	"telegram-trivia-bot/internal/config"
)

// Type identifies a response event.
type Type int

// Response events.
const (
	GameStart Type = iota
	GameStop
	PlayerAdded
	TurnPassed
	QuestionSubmitted
	AnswerSubmitted
	IncorrectAnswer
	NoCorrectAnswer
	CorrectAnswer
)

var defaults = map[Type][]string{
	GameStart: {
		"OK, %s, let the game begin!",
		"A new game is starting, and %s is hosting!",
	},
	GameStop: {
		"The game has been stopped. Start a new one with /game.",
	},
	PlayerAdded: {
		"%s has joined the game!",
		"Welcome to the game, %s!",
	},
	TurnPassed: {
		"%s has passed the turn to %s.",
	},
	QuestionSubmitted: {
		"%s asked:\n\n%s",
	},
	AnswerSubmitted: {
		"%s answered:",
	},
	IncorrectAnswer: {
		"Sorry %s, that answer is incorrect.",
		"Nope, %s, that's not it.",
	},
	NoCorrectAnswer: {
		"Nobody got it right! The turn stays with %s.",
	},
	CorrectAnswer: {
		"%s is correct!",
		"%s got it!",
	},
}

// Manager picks response templates.
type Manager struct {
	templates map[Type][]string
}

// NewManager builds a Manager from the configured template lists,
// falling back to the built-in defaults for empty lists.
func NewManager(cfg config.MessagesConfig) *Manager {
	templates := make(map[Type][]string, len(defaults))
	for t, def := range defaults {
		templates[t] = def
	}

	override := func(t Type, list []string) {
		if len(list) > 0 {
			templates[t] = list
		}
	}
	override(GameStart, cfg.GameStart)
	override(GameStop, cfg.GameStop)
	override(PlayerAdded, cfg.PlayerAdded)
	override(TurnPassed, cfg.TurnPassed)
	override(QuestionSubmitted, cfg.QuestionSubmitted)
	override(AnswerSubmitted, cfg.AnswerSubmitted)
	override(IncorrectAnswer, cfg.IncorrectAnswer)
	override(NoCorrectAnswer, cfg.NoCorrectAnswer)
	override(CorrectAnswer, cfg.CorrectAnswer)

	return &Manager{templates: templates}
}

// Get formats a random template for the event with the given arguments.
func (m *Manager) Get(t Type, args ...any) string {
	list := m.templates[t]
	if len(list) == 0 {
		return ""
	}
	return fmt.Sprintf(list[rand.Intn(len(list))], args...)
}
