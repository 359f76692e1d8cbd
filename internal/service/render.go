package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"telegram-trivia-bot/internal/model"
	"telegram-trivia-bot/internal/workflow"
)

const (
	gameNotStartedText = "A game has not yet been started. If you'd like to start a game, try `/game`"

	answerTimeFormat = "01/02/2006 03:04:05 PM"
)

// renderWorkflowError turns an engine rejection into reply text. Anything
// that is not a known rejection is an internal failure and is returned as
// an error instead.
func (s *TriviaService) renderWorkflowError(ctx context.Context, channelID, userID string, err error) (string, error) {
	var (
		beingHosted   *workflow.AlreadyBeingHostedError
		notHost       *workflow.NotHostError
		notYourTurn   *workflow.NotYourTurnError
		notYourCede   *workflow.NotYourTurnToCedeError
		alreadyAsked  *workflow.QuestionAlreadyAskedError
		noQuestionYet *workflow.NoQuestionYetError
	)

	switch {
	case errors.Is(err, workflow.ErrGameNotStarted):
		return gameNotStartedText, nil
	case errors.Is(err, workflow.ErrAlreadyHosting):
		return "You are already hosting!", nil
	case errors.As(err, &beingHosted):
		return fmt.Sprintf("%s is currently hosting.", s.displayName(ctx, channelID, beingHosted.Host)), nil
	case errors.As(err, &notHost):
		return fmt.Sprintf("It's %s's game; only the host can do that.", s.displayName(ctx, channelID, notHost.Host)), nil
	case errors.As(err, &notYourTurn):
		return fmt.Sprintf("It's %s's turn to ask a question.", s.displayName(ctx, channelID, notYourTurn.Host)), nil
	case errors.As(err, &notYourCede):
		return fmt.Sprintf("It's %s's turn; only they can cede their turn.", s.displayName(ctx, channelID, notYourCede.Host)), nil
	case errors.As(err, &alreadyAsked):
		if alreadyAsked.SameUser {
			return "You have already asked a question.", nil
		}
		return fmt.Sprintf("%s has already asked a question.", s.displayName(ctx, channelID, alreadyAsked.Host)), nil
	case errors.Is(err, workflow.ErrCannotAnswerOwnQuestion):
		return "You can't answer your own question!", nil
	case errors.As(err, &noQuestionYet):
		return fmt.Sprintf("A question has not yet been submitted. Please wait for %s to ask a question.", s.displayName(ctx, channelID, noQuestionYet.Host)), nil
	case errors.Is(err, workflow.ErrNoQuestionSubmitted):
		return "A question has not yet been submitted. Please ask a question before marking an answer correct.", nil
	default:
		return "", err
	}
}

// displayName renders a user id for chat output. Registered users show as
// @username; anyone else falls back to a clickable text mention.
func (s *TriviaService) displayName(ctx context.Context, channelID, userID string) string {
	if score, err := s.ledger.Get(ctx, channelID, userID); err == nil && score.Username != "" {
		return "@" + score.Username
	}
	return fmt.Sprintf("[player](tg://user?id=%s)", userID)
}

// renderStatus formats the game state: topic, whose turn it is, the open
// question, and the collected answers in submission order.
func (s *TriviaService) renderStatus(ctx context.Context, channelID, userID string, state *model.GameState) string {
	if !state.Active() {
		return gameNotStartedText
	}

	topic := state.Topic
	if topic == "" {
		topic = "None"
	}

	turn := s.displayName(ctx, channelID, state.ControllingUserID)
	if state.ControllingUserID == userID {
		turn = "Yours"
	}

	question := " Waiting..."
	if state.Question != "" {
		question = "\n\n" + state.Question
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Topic:* %s\n*Turn:* %s\n*Question:*%s", topic, turn, question)

	if state.Question != "" {
		b.WriteString("\n\n*Answers:*")
		if len(state.Answers) == 0 {
			b.WriteString(" Waiting...")
		} else {
			b.WriteString("\n\n```\n")
			b.WriteString(renderAnswerTable(state.Answers))
			b.WriteString("```")
		}
	}

	return b.String()
}

// renderAnswerTable lists answers oldest first, one per line, with
// usernames padded to a common width.
func renderAnswerTable(answers []model.Answer) string {
	sorted := append([]model.Answer(nil), answers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
	})

	maxUsername := 0
	for _, a := range sorted {
		if len(a.Username) > maxUsername {
			maxUsername = len(a.Username)
		}
	}

	lines := make([]string, 0, len(sorted))
	for _, a := range sorted {
		lines = append(lines, fmt.Sprintf(
			"%s   @%-*s   %s",
			a.SubmittedAt.UTC().Format(answerTimeFormat),
			maxUsername, a.Username,
			a.Text,
		))
	}
	return strings.Join(lines, "\n") + "\n"
}

// renderScores formats the channel scoreboard, highest score first.
func (s *TriviaService) renderScores(ctx context.Context, channelID string) (string, error) {
	scores, err := s.ledger.AllScores(ctx, channelID)
	if err != nil {
		return "", err
	}

	if len(scores) == 0 {
		return "```\nScores:\n\nNo scores yet...```", nil
	}

	maxUsername := 0
	for _, score := range scores {
		if len(score.Username) > maxUsername {
			maxUsername = len(score.Username)
		}
	}

	var b strings.Builder
	b.WriteString("```\nScores:\n\n")
	for _, score := range scores {
		fmt.Fprintf(&b, "@%-*s %3d\n", maxUsername+1, score.Username+":", score.Wins)
	}
	b.WriteString("```")
	return b.String(), nil
}
