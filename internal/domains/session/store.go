package session

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session not found")

// SeedSystemTurn opens every transcript so downstream completion calls have
// a well-formed message list even before the caller speaks.
const SeedSystemTurn = "You are a helpful assistant."

// Store is the process-wide session registry. Implementations must be safe
// for concurrent use from multiple calls; isolation per session id is
// sufficient, no cross-key ordering is assumed.
type Store interface {
	// Create registers a new session for a caller and returns its id. The
	// transcript is seeded with a single system turn.
	Create(ctx context.Context, callerNumber string) (string, error)

	// Get retrieves a session by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Session, error)

	// SetState applies a control-state transition. Backward or repeated
	// transitions are ignored, so concurrent escalation paths may race
	// safely. Returns ErrNotFound if the session does not exist.
	SetState(ctx context.Context, id string, state ControlState) error

	// AppendTurn appends one transcript turn.
	AppendTurn(ctx context.Context, id string, turn Turn) error

	// Touch updates the session's last-activity timestamp.
	Touch(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
