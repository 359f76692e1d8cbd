package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-trivia-bot/internal/config"
	"telegram-trivia-bot/internal/message"
	"telegram-trivia-bot/internal/repository"
	"telegram-trivia-bot/internal/workflow"
)

// fakeAnnouncer records announcements instead of delivering them.
type fakeAnnouncer struct {
	announcements []string
}

func (f *fakeAnnouncer) Announce(channelID, text string) {
	f.announcements = append(f.announcements, text)
}

func (f *fakeAnnouncer) last() string {
	if len(f.announcements) == 0 {
		return ""
	}
	return f.announcements[len(f.announcements)-1]
}

// newTestService wires the service against in-memory backends, with one
// fixed template per event so replies are deterministic.
func newTestService() (*TriviaService, *fakeAnnouncer, *repository.MemoryScoreLedger) {
	store := repository.NewMemorySessionStore()
	ledger := repository.NewMemoryScoreLedger()
	engine := workflow.NewEngine(store, ledger)
	announcer := &fakeAnnouncer{}
	messages := message.NewManager(config.MessagesConfig{
		GameStart:         []string{"Game started by %s."},
		GameStop:          []string{"Game stopped."},
		PlayerAdded:       []string{"%s joined."},
		TurnPassed:        []string{"%s passed to %s."},
		QuestionSubmitted: []string{"%s asked:\n\n%s"},
		AnswerSubmitted:   []string{"%s answered:"},
		IncorrectAnswer:   []string{"Sorry %s, wrong answer."},
		NoCorrectAnswer:   []string{"Nobody got it. %s keeps the turn."},
		CorrectAnswer:     []string{"%s is correct!"},
	})
	return NewTriviaService(engine, ledger, announcer, messages), announcer, ledger
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("starts the game and registers the host", func(t *testing.T) {
		svc, _, ledger := newTestService()

		text, err := svc.Start(ctx, "C1", "U1", "bob", "history")
		require.NoError(t, err)
		assert.Equal(t, "Game started by @bob.", text)

		exists, err := ledger.Exists(ctx, "C1", "U1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("second start renders already hosting", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		assert.Equal(t, "You are already hosting!", text)
	})

	t.Run("start during another host's game names the host", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Start(ctx, "C1", "U2", "joe", "")
		require.NoError(t, err)
		assert.Equal(t, "@bob is currently hosting.", text)
	})
}

func TestStop(t *testing.T) {
	ctx := context.Background()

	t.Run("stops a running game", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Stop(ctx, "C1", "U1")
		require.NoError(t, err)
		assert.Equal(t, "Game stopped.", text)
	})

	t.Run("renders not-started when no game is running", func(t *testing.T) {
		svc, _, _ := newTestService()

		text, err := svc.Stop(ctx, "C1", "U1")
		require.NoError(t, err)
		assert.Equal(t, gameNotStartedText, text)
	})

	t.Run("non-host stop names the host", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Stop(ctx, "C1", "U2")
		require.NoError(t, err)
		assert.Equal(t, "It's @bob's game; only the host can do that.", text)
	})
}

func TestJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and announces a new player", func(t *testing.T) {
		svc, announcer, _ := newTestService()

		text, err := svc.Join(ctx, "C1", "U1", "bob")
		require.NoError(t, err)
		assert.Equal(t, "Joining game.", text)
		assert.Equal(t, "@bob joined.", announcer.last())
	})

	t.Run("joining twice is quiet", func(t *testing.T) {
		svc, announcer, _ := newTestService()

		_, err := svc.Join(ctx, "C1", "U1", "bob")
		require.NoError(t, err)

		text, err := svc.Join(ctx, "C1", "U1", "bob")
		require.NoError(t, err)
		assert.Equal(t, "You're already in the game.", text)
		assert.Len(t, announcer.announcements, 1)
	})
}

func TestQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("posts and announces the question", func(t *testing.T) {
		svc, announcer, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Question(ctx, "C1", "U1", "What color is the sky?")
		require.NoError(t, err)
		assert.Equal(t, "Question posted.", text)
		assert.Equal(t, "@bob asked:\n\nWhat color is the sky?", announcer.last())
	})

	t.Run("non-host question names whose turn it is", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Question(ctx, "C1", "U2", "Q?")
		require.NoError(t, err)
		assert.Equal(t, "It's @bob's turn to ask a question.", text)
	})

	t.Run("double question distinguishes the asker", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Question(ctx, "C1", "U1", "Q?")
		require.NoError(t, err)

		text, err := svc.Question(ctx, "C1", "U1", "Q2?")
		require.NoError(t, err)
		assert.Equal(t, "You have already asked a question.", text)

		text, err = svc.Question(ctx, "C1", "U2", "Q2?")
		require.NoError(t, err)
		assert.Equal(t, "@bob has already asked a question.", text)
	})
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("submits, registers, and announces", func(t *testing.T) {
		svc, announcer, ledger := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Question(ctx, "C1", "U1", "Q?")
		require.NoError(t, err)

		text, err := svc.Answer(ctx, "C1", "U2", "joe", "Blue", now)
		require.NoError(t, err)
		assert.Equal(t, "Answer submitted.", text)
		assert.Equal(t, "@joe answered:\n\nBlue", announcer.last())

		exists, err := ledger.Exists(ctx, "C1", "U2")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("host answering own question is rejected", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Question(ctx, "C1", "U1", "Q?")
		require.NoError(t, err)

		text, err := svc.Answer(ctx, "C1", "U1", "bob", "Blue", now)
		require.NoError(t, err)
		assert.Equal(t, "You can't answer your own question!", text)
	})

	t.Run("answer before a question names the host", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Answer(ctx, "C1", "U2", "joe", "Blue", now)
		require.NoError(t, err)
		assert.Equal(t, "A question has not yet been submitted. Please wait for @bob to ask a question.", text)
	})
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the turn to a registered player", func(t *testing.T) {
		svc, announcer, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Join(ctx, "C1", "U2", "joe")
		require.NoError(t, err)

		text, err := svc.Pass(ctx, "C1", "U1", "@joe")
		require.NoError(t, err)
		assert.Equal(t, "Turn passed to @joe.", text)
		assert.Equal(t, "@bob passed to @joe.", announcer.last())
	})

	t.Run("unknown target is a usage reply", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Pass(ctx, "C1", "U1", "@nosuchuser")
		require.NoError(t, err)
		assert.Contains(t, text, "User @nosuchuser does not exist.")
	})

	t.Run("non-host pass names whose turn it is", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Join(ctx, "C1", "U2", "joe")
		require.NoError(t, err)

		text, err := svc.Pass(ctx, "C1", "U2", "@joe")
		require.NoError(t, err)
		assert.Equal(t, "It's @bob's turn; only they can cede their turn.", text)
	})
}

func TestCorrect(t *testing.T) {
	ctx := context.Background()

	setupRound := func(t *testing.T) (*TriviaService, *fakeAnnouncer, *repository.MemoryScoreLedger) {
		svc, announcer, ledger := newTestService()
		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Question(ctx, "C1", "U1", "Q?")
		require.NoError(t, err)
		_, err = svc.Answer(ctx, "C1", "U2", "joe", "Blue", time.Now())
		require.NoError(t, err)
		return svc, announcer, ledger
	}

	t.Run("scores the winner and announces with scoreboard", func(t *testing.T) {
		svc, announcer, ledger := setupRound(t)

		text, err := svc.Correct(ctx, "C1", "U1", "@joe", "Blue")
		require.NoError(t, err)
		assert.Equal(t, "Score updated.", text)

		score, err := ledger.Get(ctx, "C1", "U2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), score.Wins)

		announcement := announcer.last()
		assert.Contains(t, announcement, "@joe is correct!")
		assert.Contains(t, announcement, "The answer was: Blue")
		assert.Contains(t, announcement, "Scores:")
		assert.Contains(t, announcement, "@joe:")

		// The winner now controls the turn.
		reply, err := svc.Question(ctx, "C1", "U2", "Next?")
		require.NoError(t, err)
		assert.Equal(t, "Question posted.", reply)
	})

	t.Run("no winner keeps the turn with the host", func(t *testing.T) {
		svc, announcer, _ := setupRound(t)

		text, err := svc.Correct(ctx, "C1", "U1", NoCorrectAnswerTarget, "Blue")
		require.NoError(t, err)
		assert.Equal(t, "Score updated.", text)
		assert.Contains(t, announcer.last(), "Nobody got it. @bob keeps the turn.")

		reply, err := svc.Question(ctx, "C1", "U1", "Next?")
		require.NoError(t, err)
		assert.Equal(t, "Question posted.", reply)
	})

	t.Run("unknown winner is a usage reply and changes nothing", func(t *testing.T) {
		svc, _, _ := setupRound(t)

		text, err := svc.Correct(ctx, "C1", "U1", "@nosuchuser", "")
		require.NoError(t, err)
		assert.Contains(t, text, "User @nosuchuser does not exist.")

		// The round is still open for the host to resolve.
		status, err := svc.Status(ctx, "C1", "U1")
		require.NoError(t, err)
		assert.Contains(t, status, "Q?")
	})

	t.Run("non-host correct names the host", func(t *testing.T) {
		svc, _, _ := setupRound(t)

		text, err := svc.Correct(ctx, "C1", "U2", "@joe", "")
		require.NoError(t, err)
		assert.Equal(t, "It's @bob's game; only the host can do that.", text)
	})
}

func TestIncorrect(t *testing.T) {
	ctx := context.Background()

	t.Run("announces the miss and keeps the round open", func(t *testing.T) {
		svc, announcer, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Question(ctx, "C1", "U1", "Q?")
		require.NoError(t, err)
		_, err = svc.Answer(ctx, "C1", "U2", "joe", "Green", time.Now())
		require.NoError(t, err)

		text, err := svc.Incorrect(ctx, "C1", "U1", "@joe")
		require.NoError(t, err)
		assert.Equal(t, "Marked answer incorrect.", text)
		assert.Equal(t, "Sorry @joe, wrong answer.", announcer.last())

		// Another answer can still come in.
		reply, err := svc.Answer(ctx, "C1", "U3", "amy", "Blue", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "Answer submitted.", reply)
	})

	t.Run("requires an open question", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)

		text, err := svc.Incorrect(ctx, "C1", "U1", "@joe")
		require.NoError(t, err)
		assert.Equal(t, "A question has not yet been submitted. Please ask a question before marking an answer correct.", text)
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("no game", func(t *testing.T) {
		svc, _, _ := newTestService()

		text, err := svc.Status(ctx, "C1", "U1")
		require.NoError(t, err)
		assert.Equal(t, gameNotStartedText, text)
	})

	t.Run("host sees their own turn", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "history")
		require.NoError(t, err)

		text, err := svc.Status(ctx, "C1", "U1")
		require.NoError(t, err)
		assert.Contains(t, text, "*Topic:* history")
		assert.Contains(t, text, "*Turn:* Yours")
		assert.Contains(t, text, "*Question:* Waiting...")
		assert.NotContains(t, text, "*Answers:*")
	})

	t.Run("others see the host's name and the answers", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Start(ctx, "C1", "U1", "bob", "")
		require.NoError(t, err)
		_, err = svc.Question(ctx, "C1", "U1", "What color is the sky?")
		require.NoError(t, err)
		_, err = svc.Answer(ctx, "C1", "U2", "joe", "Blue", time.Now())
		require.NoError(t, err)

		text, err := svc.Status(ctx, "C1", "U2")
		require.NoError(t, err)
		assert.Contains(t, text, "*Topic:* None")
		assert.Contains(t, text, "*Turn:* @bob")
		assert.Contains(t, text, "What color is the sky?")
		assert.Contains(t, text, "*Answers:*")
		assert.Contains(t, text, "@joe")
		assert.Contains(t, text, "Blue")
	})
}

func TestScores(t *testing.T) {
	ctx := context.Background()

	t.Run("empty scoreboard", func(t *testing.T) {
		svc, _, _ := newTestService()

		text, err := svc.Scores(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, "```\nScores:\n\nNo scores yet...```", text)
	})

	t.Run("highest score first", func(t *testing.T) {
		svc, _, ledger := newTestService()

		_, err := svc.Join(ctx, "C1", "U1", "bob")
		require.NoError(t, err)
		_, err = svc.Join(ctx, "C1", "U2", "joe")
		require.NoError(t, err)
		require.NoError(t, ledger.Increment(ctx, "C1", "U2"))

		text, err := svc.Scores(ctx, "C1")
		require.NoError(t, err)
		assert.Contains(t, text, "Scores:")

		joeIdx := strings.Index(text, "@joe")
		bobIdx := strings.Index(text, "@bob")
		require.GreaterOrEqual(t, joeIdx, 0)
		require.GreaterOrEqual(t, bobIdx, 0)
		assert.Less(t, joeIdx, bobIdx)
	})
}

func TestResetScores(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newTestService()

	_, err := svc.Join(ctx, "C1", "U1", "bob")
	require.NoError(t, err)

	text, err := svc.ResetScores(ctx, "C1")
	require.NoError(t, err)
	assert.Contains(t, text, "Scores have been reset!")
	assert.Contains(t, text, "No scores yet...")
}
