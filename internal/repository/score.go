package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-trivia-bot/internal/model"
)

// ErrUnknownUser is returned when a score operation targets a user that
// was never registered for the channel.
var ErrUnknownUser = errors.New("unknown user")

// ScoreRepository persists per-channel/per-user win counters.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository instance.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// EnsureUser registers a user for the channel with a zero score if not
// already present. Returns true if the row was created.
func (r *ScoreRepository) EnsureUser(ctx context.Context, channelID, userID, username string) (bool, error) {
	const query = `
		INSERT INTO scores (channel_id, user_id, username, wins, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		ON CONFLICT (channel_id, user_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, channelID, userID, username)
	if err != nil {
		return false, fmt.Errorf("failed to ensure user: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Increment adds one win for the user.
// Returns ErrUnknownUser if the user was never registered for the channel.
func (r *ScoreRepository) Increment(ctx context.Context, channelID, userID string) error {
	const query = `
		UPDATE scores
		SET wins = wins + 1, updated_at = NOW()
		WHERE channel_id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, channelID, userID)
	if err != nil {
		return fmt.Errorf("failed to increment score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}

// Get retrieves a user's score row for the channel.
// Returns ErrUnknownUser if the user was never registered.
func (r *ScoreRepository) Get(ctx context.Context, channelID, userID string) (*model.Score, error) {
	const query = `
		SELECT channel_id, user_id, username, wins, created_at, updated_at
		FROM scores
		WHERE channel_id = $1 AND user_id = $2
	`

	var score model.Score
	err := r.pool.QueryRow(ctx, query, channelID, userID).Scan(
		&score.ChannelID,
		&score.UserID,
		&score.Username,
		&score.Wins,
		&score.CreatedAt,
		&score.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return &score, nil
}

// Exists reports whether the user is registered for the channel.
func (r *ScoreRepository) Exists(ctx context.Context, channelID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM scores WHERE channel_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, channelID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// FindByUsername resolves a registered user by username within a channel.
// Returns ErrUnknownUser when no such user exists.
func (r *ScoreRepository) FindByUsername(ctx context.Context, channelID, username string) (*model.Score, error) {
	const query = `
		SELECT channel_id, user_id, username, wins, created_at, updated_at
		FROM scores
		WHERE channel_id = $1 AND username = $2
	`

	var score model.Score
	err := r.pool.QueryRow(ctx, query, channelID, username).Scan(
		&score.ChannelID,
		&score.UserID,
		&score.Username,
		&score.Wins,
		&score.CreatedAt,
		&score.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return &score, nil
}

// AllScores returns every registered user's score for the channel,
// ordered by wins descending and then username.
func (r *ScoreRepository) AllScores(ctx context.Context, channelID string) ([]*model.Score, error) {
	const query = `
		SELECT channel_id, user_id, username, wins, created_at, updated_at
		FROM scores
		WHERE channel_id = $1
		ORDER BY wins DESC, username ASC
	`

	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	defer rows.Close()

	var scores []*model.Score
	for rows.Next() {
		var score model.Score
		err := rows.Scan(
			&score.ChannelID,
			&score.UserID,
			&score.Username,
			&score.Wins,
			&score.CreatedAt,
			&score.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, &score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}

// Reset deletes all score rows for the channel.
func (r *ScoreRepository) Reset(ctx context.Context, channelID string) error {
	const query = `DELETE FROM scores WHERE channel_id = $1`

	if _, err := r.pool.Exec(ctx, query, channelID); err != nil {
		return fmt.Errorf("failed to reset scores: %w", err)
	}
	return nil
}
