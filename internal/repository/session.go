// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-trivia-bot/internal/model"
	"telegram-trivia-bot/internal/workflow"
)

// SessionRepository persists game sessions in PostgreSQL, one row per
// channel. Answers are stored as a JSONB column so the whole session is
// written back in a single statement.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Load retrieves the session for a channel.
// Returns workflow.ErrSessionNotFound if the channel has no session.
func (r *SessionRepository) Load(ctx context.Context, channelID string) (*model.Session, error) {
	const query = `
		SELECT channel_id, controlling_user_id, topic, question, stage, answers, created_at, updated_at
		FROM sessions
		WHERE channel_id = $1
	`

	var session model.Session
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&session.ChannelID,
		&session.ControllingUserID,
		&session.Topic,
		&session.Question,
		&session.Stage,
		&session.Answers,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Answers == nil {
		session.Answers = []model.Answer{}
	}
	return &session, nil
}

// Save upserts the channel's session.
func (r *SessionRepository) Save(ctx context.Context, session *model.Session) error {
	const query = `
		INSERT INTO sessions (channel_id, controlling_user_id, topic, question, stage, answers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (channel_id) DO UPDATE
		SET controlling_user_id = EXCLUDED.controlling_user_id,
		    topic = EXCLUDED.topic,
		    question = EXCLUDED.question,
		    stage = EXCLUDED.stage,
		    answers = EXCLUDED.answers,
		    updated_at = NOW()
	`

	answers := session.Answers
	if answers == nil {
		answers = []model.Answer{}
	}

	_, err := r.pool.Exec(ctx, query,
		session.ChannelID,
		session.ControllingUserID,
		session.Topic,
		session.Question,
		session.Stage,
		answers,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the channel's session. Deleting an absent session is not
// an error; the game is simply over either way.
func (r *SessionRepository) Delete(ctx context.Context, channelID string) error {
	const query = `DELETE FROM sessions WHERE channel_id = $1`

	if _, err := r.pool.Exec(ctx, query, channelID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
