// Package model defines the data models for the trivia bot.
package model

import "time"

// Stage identifies where a channel's game is in its round lifecycle.
// A channel with no persisted session is implicitly in StageNotStarted.
type Stage string

// Game stages.
const (
	StageNotStarted    Stage = "not_started"
	StageStarted       Stage = "started"
	StageQuestionAsked Stage = "question_asked"
)

// Session is the per-channel game record. At most one live session exists
// per channel; it is created on game start and deleted on game stop.
type Session struct {
	ChannelID         string    `db:"channel_id" json:"channelId"`
	ControllingUserID string    `db:"controlling_user_id" json:"controllingUserId"`
	Topic             string    `db:"topic" json:"topic,omitempty"`
	Question          string    `db:"question" json:"question,omitempty"`
	Stage             Stage     `db:"stage" json:"stage"`
	Answers           []Answer  `db:"answers" json:"answers"`
	CreatedAt         time.Time `db:"created_at" json:"-"`
	UpdatedAt         time.Time `db:"updated_at" json:"-"`
}

// Answer is a single submitted answer. Immutable once created; the
// timestamp is used only for display ordering.
type Answer struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Score is a per-channel/per-user win counter.
type Score struct {
	ChannelID string    `db:"channel_id"`
	UserID    string    `db:"user_id"`
	Username  string    `db:"username"`
	Wins      int64     `db:"wins"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GameState is the read-only snapshot returned for status rendering.
// All fields are zero-valued when the channel has no active game.
type GameState struct {
	ControllingUserID string
	Topic             string
	Question          string
	Answers           []Answer
}

// Active reports whether a game is running for the channel.
func (g *GameState) Active() bool {
	return g.ControllingUserID != ""
}
