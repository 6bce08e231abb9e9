package session

import (
	"context"
	"errors"
	"time"
)

// Role tags who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrInvalidRole = errors.New("invalid turn role")

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Turn is one role-tagged message in a conversation. Treat as immutable once appended.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary describes a stored session without its turns.
type Summary struct {
	SessionID      string    `json:"session_id"`
	Turns          int       `json:"turns"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Store owns session histories keyed by a client-supplied id.
//
// A session with zero turns is indistinguishable from one that was never
// created: GetOrCreate on an unseen id returns an empty history and Clear on
// an unknown id is a no-op.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Clear(ctx context.Context, sessionID string) error
	Len(ctx context.Context, sessionID string) (int, error)
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// NewTurn builds a turn stamped with a fresh id and the current time.
func NewTurn(role Role, text string) Turn {
	return normalize(Turn{Role: role, Text: text})
}
