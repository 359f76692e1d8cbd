package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-trivia-bot/internal/model"
	"telegram-trivia-bot/internal/workflow"
)

// MemorySessionStore is an in-memory SessionStore. The engine and the
// unit tests run against it; the workflow contract is identical to the
// PostgreSQL-backed store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*model.Session)}
}

// Load retrieves the session for a channel.
// Returns workflow.ErrSessionNotFound if the channel has no session.
func (s *MemorySessionStore) Load(_ context.Context, channelID string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[channelID]
	if !ok {
		return nil, workflow.ErrSessionNotFound
	}
	return copySession(session), nil
}

// Save upserts the channel's session.
func (s *MemorySessionStore) Save(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copySession(session)
	stored.UpdatedAt = time.Now()
	if prev, ok := s.sessions[session.ChannelID]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = stored.UpdatedAt
	}
	s.sessions[session.ChannelID] = stored
	return nil
}

// Delete removes the channel's session.
func (s *MemorySessionStore) Delete(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, channelID)
	return nil
}

// copySession deep-copies a session so callers never alias stored state.
func copySession(session *model.Session) *model.Session {
	copied := *session
	copied.Answers = append([]model.Answer(nil), session.Answers...)
	return &copied
}

// MemoryScoreLedger is an in-memory score ledger with the same contract
// as ScoreRepository.
type MemoryScoreLedger struct {
	mu     sync.RWMutex
	scores map[string]map[string]*model.Score // channel -> user -> score
}

// NewMemoryScoreLedger creates an empty in-memory score ledger.
func NewMemoryScoreLedger() *MemoryScoreLedger {
	return &MemoryScoreLedger{scores: make(map[string]map[string]*model.Score)}
}

// EnsureUser registers a user for the channel with a zero score if not
// already present. Returns true if the entry was created.
func (l *MemoryScoreLedger) EnsureUser(_ context.Context, channelID, userID, username string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	channel, ok := l.scores[channelID]
	if !ok {
		channel = make(map[string]*model.Score)
		l.scores[channelID] = channel
	}
	if _, ok := channel[userID]; ok {
		return false, nil
	}

	now := time.Now()
	channel[userID] = &model.Score{
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return true, nil
}

// Increment adds one win for the user.
// Returns ErrUnknownUser if the user was never registered for the channel.
func (l *MemoryScoreLedger) Increment(_ context.Context, channelID, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	score, ok := l.scores[channelID][userID]
	if !ok {
		return ErrUnknownUser
	}
	score.Wins++
	score.UpdatedAt = time.Now()
	return nil
}

// Get retrieves a user's score entry for the channel.
// Returns ErrUnknownUser if the user was never registered.
func (l *MemoryScoreLedger) Get(_ context.Context, channelID, userID string) (*model.Score, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	score, ok := l.scores[channelID][userID]
	if !ok {
		return nil, ErrUnknownUser
	}
	copied := *score
	return &copied, nil
}

// Exists reports whether the user is registered for the channel.
func (l *MemoryScoreLedger) Exists(_ context.Context, channelID, userID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.scores[channelID][userID]
	return ok, nil
}

// FindByUsername resolves a registered user by username within a channel.
// Returns ErrUnknownUser when no such user exists.
func (l *MemoryScoreLedger) FindByUsername(_ context.Context, channelID, username string) (*model.Score, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, score := range l.scores[channelID] {
		if score.Username == username {
			copied := *score
			return &copied, nil
		}
	}
	return nil, ErrUnknownUser
}

// AllScores returns every registered user's score for the channel,
// ordered by wins descending and then username.
func (l *MemoryScoreLedger) AllScores(_ context.Context, channelID string) ([]*model.Score, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	scores := make([]*model.Score, 0, len(l.scores[channelID]))
	for _, score := range l.scores[channelID] {
		copied := *score
		scores = append(scores, &copied)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Wins != scores[j].Wins {
			return scores[i].Wins > scores[j].Wins
		}
		return scores[i].Username < scores[j].Username
	})
	return scores, nil
}

// Reset deletes all score entries for the channel.
func (l *MemoryScoreLedger) Reset(_ context.Context, channelID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.scores, channelID)
	return nil
}
