// Package handler provides Telegram bot command handlers. Handlers are
// thin adapters: they pull ids and arguments out of the update, call the
// trivia service, and reply with whatever text comes back.
package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-trivia-bot/internal/service"
)

const internalErrorText = "Something went wrong, please try again."

// TriviaHandler handles all trivia game commands.
type TriviaHandler struct {
	trivia *service.TriviaService
}

// NewTriviaHandler creates a new TriviaHandler.
func NewTriviaHandler(trivia *service.TriviaService) *TriviaHandler {
	return &TriviaHandler{trivia: trivia}
}

// identify extracts the opaque channel/user ids and the display username
// out of an update. The engine treats ids as opaque strings; the int64
// conversion happens only here at the platform boundary.
func identify(c tele.Context) (channelID, userID, username string) {
	if chat := c.Chat(); chat != nil {
		channelID = strconv.FormatInt(chat.ID, 10)
	}
	if sender := c.Sender(); sender != nil {
		userID = strconv.FormatInt(sender.ID, 10)
		username = sender.Username
		if username == "" {
			username = sender.FirstName
		}
	}
	return channelID, userID, username
}

// reply sends the service's text, logging internal failures.
func reply(c tele.Context, text string, err error) error {
	if err != nil {
		log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("Command failed")
		return c.Reply(internalErrorText)
	}
	return c.Reply(text)
}

// HandleGame handles /game [topic...]: starts a game with the caller as host.
func (h *TriviaHandler) HandleGame(c tele.Context) error {
	channelID, userID, username := identify(c)
	topic := strings.TrimSpace(c.Message().Payload)

	text, err := h.trivia.Start(context.Background(), channelID, userID, username, topic)
	return reply(c, text, err)
}

// HandleStopGame handles /stopgame: ends the game. Host only.
func (h *TriviaHandler) HandleStopGame(c tele.Context) error {
	channelID, userID, _ := identify(c)

	text, err := h.trivia.Stop(context.Background(), channelID, userID)
	return reply(c, text, err)
}

// HandleJoin handles /join: registers the caller on the scoreboard.
func (h *TriviaHandler) HandleJoin(c tele.Context) error {
	channelID, userID, username := identify(c)

	text, err := h.trivia.Join(context.Background(), channelID, userID, username)
	return reply(c, text, err)
}

// HandleQuestion handles /question <text>: posts the round's question.
func (h *TriviaHandler) HandleQuestion(c tele.Context) error {
	channelID, userID, _ := identify(c)
	question := strings.TrimSpace(c.Message().Payload)
	if question == "" {
		return c.Reply("To submit a question, use `/question <QUESTION_TEXT>`.\n\nFor example, `/question In what year did WWII officially begin?`")
	}

	text, err := h.trivia.Question(context.Background(), channelID, userID, question)
	return reply(c, text, err)
}

// HandleAnswer handles /answer <text>: submits an answer to the open question.
func (h *TriviaHandler) HandleAnswer(c tele.Context) error {
	channelID, userID, username := identify(c)
	answer := strings.TrimSpace(c.Message().Payload)
	if answer == "" {
		return c.Reply("To submit an answer, use `/answer <ANSWER_TEXT>`.\n\nFor example, `/answer Blue skies`")
	}

	submittedAt := time.Now()
	if msg := c.Message(); msg != nil && msg.Unixtime > 0 {
		submittedAt = msg.Time()
	}

	text, err := h.trivia.Answer(context.Background(), channelID, userID, username, answer, submittedAt)
	return reply(c, text, err)
}

// HandlePass handles /pass <@user>: cedes the turn. Host only.
func (h *TriviaHandler) HandlePass(c tele.Context) error {
	channelID, userID, _ := identify(c)
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("To pass your turn, use `/pass <USERNAME>`.\n\nFor example, `/pass @jsmith`")
	}

	text, err := h.trivia.Pass(context.Background(), channelID, userID, args[0])
	return reply(c, text, err)
}

// HandleCorrect handles /correct <@user|none> [answer...]: resolves the
// round, scoring the winner unless the target is "none". Host only.
func (h *TriviaHandler) HandleCorrect(c tele.Context) error {
	channelID, userID, _ := identify(c)
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("To mark an answer correct, use `/correct <USERNAME> <ANSWER>`.\n\nFor example, `/correct @jsmith Blue skies`")
	}

	answerText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.Message().Payload), args[0]))

	text, err := h.trivia.Correct(context.Background(), channelID, userID, args[0], answerText)
	return reply(c, text, err)
}

// HandleIncorrect handles /incorrect <@user>: announces a wrong answer
// without closing the round. Host only.
func (h *TriviaHandler) HandleIncorrect(c tele.Context) error {
	channelID, userID, _ := identify(c)
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("To mark an answer incorrect, use `/incorrect <USERNAME>`.\n\nFor example, `/incorrect @jsmith`")
	}

	text, err := h.trivia.Incorrect(context.Background(), channelID, userID, args[0])
	return reply(c, text, err)
}

// HandleStatus handles /status: shows topic, turn, question, and answers.
func (h *TriviaHandler) HandleStatus(c tele.Context) error {
	channelID, userID, _ := identify(c)

	text, err := h.trivia.Status(context.Background(), channelID, userID)
	return reply(c, text, err)
}

// HandleScores handles /scores: shows the channel scoreboard.
func (h *TriviaHandler) HandleScores(c tele.Context) error {
	channelID, _, _ := identify(c)

	text, err := h.trivia.Scores(context.Background(), channelID)
	return reply(c, text, err)
}

// HandleResetScores handles /resetscores: wipes the channel scoreboard.
// Registered behind the admin middleware.
func (h *TriviaHandler) HandleResetScores(c tele.Context) error {
	channelID, _, _ := identify(c)

	text, err := h.trivia.ResetScores(context.Background(), channelID)
	return reply(c, text, err)
}
