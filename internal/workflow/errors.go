package workflow

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by SessionStore implementations when a
// channel has no persisted session. The engine translates it into
// ErrGameNotStarted for mutating operations.
var ErrSessionNotFound = errors.New("session not found")

// ErrGameNotStarted rejects any action on a channel with no active game.
var ErrGameNotStarted = errors.New("game not started")

// ErrAlreadyHosting rejects a start by the user who is already hosting.
var ErrAlreadyHosting = errors.New("already hosting")

// ErrCannotAnswerOwnQuestion rejects the host answering their own question.
var ErrCannotAnswerOwnQuestion = errors.New("cannot answer own question")

// ErrNoQuestionSubmitted rejects resolving a round before a question exists.
var ErrNoQuestionSubmitted = errors.New("no question submitted yet")

// AlreadyBeingHostedError rejects a start on a channel hosted by someone else.
type AlreadyBeingHostedError struct {
	Host string
}

func (e *AlreadyBeingHostedError) Error() string {
	return fmt.Sprintf("user %s is currently hosting", e.Host)
}

// NotHostError rejects stop and resolve attempts by anyone but the host.
type NotHostError struct {
	Host string
}

func (e *NotHostError) Error() string {
	return fmt.Sprintf("only the current host %s may do that", e.Host)
}

// NotYourTurnError rejects a question from anyone but the host.
type NotYourTurnError struct {
	Host string
}

func (e *NotYourTurnError) Error() string {
	return fmt.Sprintf("it is user %s's turn to ask a question", e.Host)
}

// NotYourTurnToCedeError rejects a turn handoff by anyone but the host.
type NotYourTurnToCedeError struct {
	Host string
}

func (e *NotYourTurnToCedeError) Error() string {
	return fmt.Sprintf("only the current host %s may cede the turn", e.Host)
}

// QuestionAlreadyAskedError rejects a second question within one round.
// SameUser distinguishes the host double-submitting from another user
// trying to jump in, so callers can word the rejection accordingly.
type QuestionAlreadyAskedError struct {
	Host     string
	SameUser bool
}

func (e *QuestionAlreadyAskedError) Error() string {
	if e.SameUser {
		return "you have already asked a question"
	}
	return fmt.Sprintf("user %s has already asked a question", e.Host)
}

// NoQuestionYetError rejects an answer submitted before any question.
type NoQuestionYetError struct {
	Host string
}

func (e *NoQuestionYetError) Error() string {
	return fmt.Sprintf("no question has been submitted by user %s yet", e.Host)
}
