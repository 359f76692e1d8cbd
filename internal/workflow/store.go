package workflow

import (
	"context"

	"telegram-trivia-bot/internal/model"
)

// SessionStore is the persistence contract the engine runs against.
// Load must return ErrSessionNotFound for a channel with no session so
// the engine can distinguish "absent" from a stored session. The engine
// serializes all calls for one channel itself; implementations only need
// to be safe for concurrent use across channels.
type SessionStore interface {
	Load(ctx context.Context, channelID string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, channelID string) error
}

// ScoreLedger is the win-counter seam used by ResolveRound. The engine
// never reads scores; it only invokes Increment between the resolution
// guard and the turn transfer, inside the channel lock.
type ScoreLedger interface {
	Increment(ctx context.Context, channelID, userID string) error
}
