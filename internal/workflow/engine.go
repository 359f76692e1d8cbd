// Package workflow implements the trivia game state machine. One game runs
// per channel: a host asks a question, other users submit answers, the host
// resolves the round and the turn moves on. The engine validates every
// requested action against the channel's current session and either applies
// the transition or returns a typed error for the caller to render.
//
// Every mutating operation executes as a single atomic read-modify-write
// under a per-channel lock. Operations on different channels never contend.
// The engine performs no logging and no I/O beyond the store and ledger it
// is given; all errors are ordinary values, never fatal.
package workflow

import (
	"context"
	"errors"
	"time"

	"telegram-trivia-bot/internal/model"
	"telegram-trivia-bot/internal/pkg/lock"
)

// Engine drives the per-channel game workflow against a pluggable
// session store and score ledger.
type Engine struct {
	store  SessionStore
	ledger ScoreLedger
	locks  *lock.ChannelLock
}

// NewEngine creates an Engine backed by the given store and ledger.
func NewEngine(store SessionStore, ledger ScoreLedger) *Engine {
	return &Engine{
		store:  store,
		ledger: ledger,
		locks:  lock.NewChannelLock(),
	}
}

// StartGame creates a session for the channel with the caller as host.
// An optional topic labels the game. Fails with ErrAlreadyHosting or
// AlreadyBeingHostedError when a game is already running.
func (e *Engine) StartGame(ctx context.Context, channelID, userID, topic string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}

		if session != nil {
			if session.ControllingUserID == userID {
				return ErrAlreadyHosting
			}
			return &AlreadyBeingHostedError{Host: session.ControllingUserID}
		}

		return e.store.Save(ctx, &model.Session{
			ChannelID:         channelID,
			ControllingUserID: userID,
			Topic:             topic,
			Stage:             model.StageStarted,
			Answers:           []model.Answer{},
		})
	})
}

// StopGame deletes the channel's session. Only the current host may stop.
func (e *Engine) StopGame(ctx context.Context, channelID, userID string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}

		if session == nil {
			return ErrGameNotStarted
		}
		if session.ControllingUserID != userID {
			return &NotHostError{Host: session.ControllingUserID}
		}

		return e.store.Delete(ctx, channelID)
	})
}

// SubmitQuestion posts the round's question and moves the session to the
// question-asked stage. Only the host may ask, and only once per round.
func (e *Engine) SubmitQuestion(ctx context.Context, channelID, userID, text string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}

		if session == nil {
			return ErrGameNotStarted
		}

		isHost := session.ControllingUserID == userID
		if session.Stage == model.StageQuestionAsked {
			return &QuestionAlreadyAskedError{Host: session.ControllingUserID, SameUser: isHost}
		}
		if !isHost {
			return &NotYourTurnError{Host: session.ControllingUserID}
		}

		session.Question = text
		session.Stage = model.StageQuestionAsked
		return e.store.Save(ctx, session)
	})
}

// SubmitAnswer appends an answer to the current question. The host may
// never answer their own question; that check runs before the stage check
// so the host always gets the specific rejection.
func (e *Engine) SubmitAnswer(ctx context.Context, channelID, userID, username, text string, submittedAt time.Time) error {
	if channelID == "" || userID == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}

		if session == nil {
			return ErrGameNotStarted
		}
		if session.ControllingUserID == userID {
			return ErrCannotAnswerOwnQuestion
		}
		if session.Stage != model.StageQuestionAsked {
			return &NoQuestionYetError{Host: session.ControllingUserID}
		}

		session.Answers = append(session.Answers, model.Answer{
			UserID:      userID,
			Username:    username,
			Text:        text,
			SubmittedAt: submittedAt,
		})
		return e.store.Save(ctx, session)
	})
}

// SelectCorrectAnswer authorizes the host to resolve the current round.
// It is purely a guard: no session state changes. Callers that need the
// full resolve-score-transfer sequence should use ResolveRound, which
// runs the same guard atomically with the rest.
func (e *Engine) SelectCorrectAnswer(ctx context.Context, channelID, userID string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}
		return resolveGuard(session, userID)
	})
}

// TransferTurn hands the turn to newHost and resets the round: question and
// answers are cleared and the session returns to the started stage. Used
// both for a voluntary pass and for handing the turn to a round's winner.
func (e *Engine) TransferTurn(ctx context.Context, channelID, userID, newHost string) error {
	if channelID == "" || userID == "" || newHost == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}

		if session == nil {
			return ErrGameNotStarted
		}
		if session.ControllingUserID != userID {
			return &NotYourTurnToCedeError{Host: session.ControllingUserID}
		}

		transferTo(session, newHost)
		return e.store.Save(ctx, session)
	})
}

// ResolveRound resolves the current question as one atomic step: the
// resolution guard, the winner's score increment, and the turn transfer
// all run under the channel lock. An empty winnerID means nobody answered
// correctly; the turn returns to the asking host and no score changes.
// If the increment fails the session is left untouched.
func (e *Engine) ResolveRound(ctx context.Context, channelID, userID, winnerID string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	return e.locks.WithLock(channelID, func() error {
		session, err := e.load(ctx, channelID)
		if err != nil {
			return err
		}
		if err := resolveGuard(session, userID); err != nil {
			return err
		}

		newHost := userID
		if winnerID != "" {
			if err := e.ledger.Increment(ctx, channelID, winnerID); err != nil {
				return err
			}
			newHost = winnerID
		}

		transferTo(session, newHost)
		return e.store.Save(ctx, session)
	})
}

// GetState returns a read-only snapshot of the channel's game for status
// rendering. It never fails: a channel with no session yields a zero
// snapshot, and the question and answers are only exposed once a question
// has been asked.
func (e *Engine) GetState(ctx context.Context, channelID string) (*model.GameState, error) {
	if channelID == "" {
		return &model.GameState{}, nil
	}

	session, err := e.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &model.GameState{}, nil
	}

	state := &model.GameState{
		ControllingUserID: session.ControllingUserID,
		Topic:             session.Topic,
	}
	if session.Stage == model.StageQuestionAsked {
		state.Question = session.Question
		state.Answers = append([]model.Answer(nil), session.Answers...)
	}
	return state, nil
}

// load maps the store's not-found sentinel to a nil session.
func (e *Engine) load(ctx context.Context, channelID string) (*model.Session, error) {
	session, err := e.store.Load(ctx, channelID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// resolveGuard validates that userID may resolve the channel's round.
func resolveGuard(session *model.Session, userID string) error {
	if session == nil {
		return ErrGameNotStarted
	}
	if session.ControllingUserID != userID {
		return &NotHostError{Host: session.ControllingUserID}
	}
	if session.Stage != model.StageQuestionAsked {
		return ErrNoQuestionSubmitted
	}
	return nil
}

// transferTo resets the round with newHost in control.
func transferTo(session *model.Session, newHost string) {
	session.ControllingUserID = newHost
	session.Question = ""
	session.Answers = []model.Answer{}
	session.Stage = model.StageStarted
}
