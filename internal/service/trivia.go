// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-trivia-bot/internal/message"
	"telegram-trivia-bot/internal/model"
	"telegram-trivia-bot/internal/pkg/mention"
	"telegram-trivia-bot/internal/repository"
	"telegram-trivia-bot/internal/workflow"
)

// ScoreLedger is the score surface the trivia service needs. Satisfied by
// both repository.ScoreRepository and repository.MemoryScoreLedger.
type ScoreLedger interface {
	EnsureUser(ctx context.Context, channelID, userID, username string) (bool, error)
	Increment(ctx context.Context, channelID, userID string) error
	Get(ctx context.Context, channelID, userID string) (*model.Score, error)
	Exists(ctx context.Context, channelID, userID string) (bool, error)
	FindByUsername(ctx context.Context, channelID, username string) (*model.Score, error)
	AllScores(ctx context.Context, channelID string) ([]*model.Score, error)
	Reset(ctx context.Context, channelID string) error
}

// Announcer delivers in-channel announcements asynchronously.
type Announcer interface {
	Announce(channelID, text string)
}

// TriviaService orchestrates the workflow engine, the score ledger, and
// announcement delivery, and renders every outcome as reply text. Engine
// rejections become user-facing replies here; a non-nil error from any
// method means an internal failure (store, ledger), not a rule violation.
type TriviaService struct {
	engine    *workflow.Engine
	ledger    ScoreLedger
	announcer Announcer
	messages  *message.Manager
}

// NewTriviaService creates a new TriviaService instance.
func NewTriviaService(
	engine *workflow.Engine,
	ledger ScoreLedger,
	announcer Announcer,
	messages *message.Manager,
) *TriviaService {
	return &TriviaService{
		engine:    engine,
		ledger:    ledger,
		announcer: announcer,
		messages:  messages,
	}
}

// Start begins a game with the caller as host. Topic may be empty.
func (s *TriviaService) Start(ctx context.Context, channelID, userID, username, topic string) (string, error) {
	if err := s.engine.StartGame(ctx, channelID, userID, topic); err != nil {
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}

	// The host plays too; make sure they appear on the scoreboard.
	if _, err := s.ledger.EnsureUser(ctx, channelID, userID, username); err != nil {
		return "", err
	}

	return s.messages.Get(message.GameStart, s.displayName(ctx, channelID, userID)), nil
}

// Stop ends the channel's game. Host only.
func (s *TriviaService) Stop(ctx context.Context, channelID, userID string) (string, error) {
	if err := s.engine.StopGame(ctx, channelID, userID); err != nil {
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}
	return s.messages.Get(message.GameStop), nil
}

// Join registers the caller on the channel's scoreboard.
func (s *TriviaService) Join(ctx context.Context, channelID, userID, username string) (string, error) {
	created, err := s.ledger.EnsureUser(ctx, channelID, userID, username)
	if err != nil {
		return "", err
	}

	if !created {
		return "You're already in the game.", nil
	}

	s.announcer.Announce(channelID, s.messages.Get(message.PlayerAdded, s.displayName(ctx, channelID, userID)))
	return "Joining game.", nil
}

// Question posts the round's question. Host only, once per round.
func (s *TriviaService) Question(ctx context.Context, channelID, userID, text string) (string, error) {
	if err := s.engine.SubmitQuestion(ctx, channelID, userID, text); err != nil {
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}

	s.announcer.Announce(channelID, s.messages.Get(message.QuestionSubmitted, s.displayName(ctx, channelID, userID), text))
	return "Question posted.", nil
}

// Answer submits an answer to the current question and registers the
// respondent on the scoreboard.
func (s *TriviaService) Answer(ctx context.Context, channelID, userID, username, text string, submittedAt time.Time) (string, error) {
	if err := s.engine.SubmitAnswer(ctx, channelID, userID, username, text, submittedAt); err != nil {
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}

	if _, err := s.ledger.EnsureUser(ctx, channelID, userID, username); err != nil {
		return "", err
	}

	s.announcer.Announce(channelID, s.messages.Get(message.AnswerSubmitted, s.displayName(ctx, channelID, userID))+"\n\n"+text)
	return "Answer submitted.", nil
}

// Pass hands the turn to the target user without resolving the round.
func (s *TriviaService) Pass(ctx context.Context, channelID, userID, target string) (string, error) {
	newHost, err := s.resolveTarget(ctx, channelID, target)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownUser) {
			return fmt.Sprintf("User %s does not exist. Please choose a valid user.\n\nUsage: `/pass @jsmith`", target), nil
		}
		return "", err
	}

	if err := s.engine.TransferTurn(ctx, channelID, userID, newHost); err != nil {
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}

	s.announcer.Announce(channelID, s.messages.Get(message.TurnPassed,
		s.displayName(ctx, channelID, userID), s.displayName(ctx, channelID, newHost)))
	return fmt.Sprintf("Turn passed to %s.", s.displayName(ctx, channelID, newHost)), nil
}

// Incorrect announces that the target's answer was wrong. Host only.
// The round stays open: no state changes, answers keep accumulating.
func (s *TriviaService) Incorrect(ctx context.Context, channelID, userID, target string) (string, error) {
	if err := s.engine.SelectCorrectAnswer(ctx, channelID, userID); err != nil {
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}

	wrongUser, err := s.resolveTarget(ctx, channelID, target)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownUser) {
			return fmt.Sprintf("User %s does not exist. Please choose a valid user.\n\nUsage: `/incorrect @jsmith`", target), nil
		}
		return "", err
	}

	s.announcer.Announce(channelID, s.messages.Get(message.IncorrectAnswer, s.displayName(ctx, channelID, wrongUser)))
	return "Marked answer incorrect.", nil
}

// NoCorrectAnswerTarget resolves the round with no winner.
const NoCorrectAnswerTarget = "none"

// Correct resolves the round. Host only. The target names the winner, or
// NoCorrectAnswerTarget when nobody got it; answerText, when present, is
// echoed into the announcement. Scoring and turn transfer happen as one
// atomic step inside the engine.
func (s *TriviaService) Correct(ctx context.Context, channelID, userID, target, answerText string) (string, error) {
	var winnerID string
	if target != NoCorrectAnswerTarget {
		var err error
		winnerID, err = s.resolveTarget(ctx, channelID, target)
		if err != nil && !errors.Is(err, repository.ErrUnknownUser) {
			return "", err
		}
		if err != nil {
			return fmt.Sprintf("User %s does not exist. Please choose a valid user.\n\nUsage: `/correct @jsmith Blue skies`", target), nil
		}
	}

	if err := s.engine.ResolveRound(ctx, channelID, userID, winnerID); err != nil {
		if errors.Is(err, repository.ErrUnknownUser) {
			return fmt.Sprintf("User %s does not exist. Please choose a valid user.\n\nUsage: `/correct @jsmith Blue skies`", target), nil
		}
		return s.renderWorkflowError(ctx, channelID, userID, err)
	}

	scores, err := s.renderScores(ctx, channelID)
	if err != nil {
		return "", err
	}

	var text string
	if winnerID == "" {
		text = s.messages.Get(message.NoCorrectAnswer, s.displayName(ctx, channelID, userID))
	} else {
		text = s.messages.Get(message.CorrectAnswer, s.displayName(ctx, channelID, winnerID))
	}
	if answerText != "" {
		text += fmt.Sprintf("\n\nThe answer was: %s", answerText)
	}
	text += "\n\n" + scores

	s.announcer.Announce(channelID, text)
	return "Score updated.", nil
}

// Status renders the channel's current game state for the caller.
func (s *TriviaService) Status(ctx context.Context, channelID, userID string) (string, error) {
	state, err := s.engine.GetState(ctx, channelID)
	if err != nil {
		return "", err
	}
	return s.renderStatus(ctx, channelID, userID, state), nil
}

// Scores renders the channel's scoreboard.
func (s *TriviaService) Scores(ctx context.Context, channelID string) (string, error) {
	return s.renderScores(ctx, channelID)
}

// ResetScores wipes the channel's scoreboard.
func (s *TriviaService) ResetScores(ctx context.Context, channelID string) (string, error) {
	if err := s.ledger.Reset(ctx, channelID); err != nil {
		return "", err
	}

	scores, err := s.renderScores(ctx, channelID)
	if err != nil {
		return "", err
	}
	return "Scores have been reset!\n\n" + scores, nil
}

// resolveTarget turns a command target (mention, @username, or bare id)
// into a registered user id for the channel.
func (s *TriviaService) resolveTarget(ctx context.Context, channelID, target string) (string, error) {
	if username, ok := mention.Username(target); ok {
		score, err := s.ledger.FindByUsername(ctx, channelID, username)
		if err != nil {
			return "", err
		}
		return score.UserID, nil
	}

	userID := mention.NormalizeID(target)
	exists, err := s.ledger.Exists(ctx, channelID, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", repository.ErrUnknownUser
	}
	return userID, nil
}
