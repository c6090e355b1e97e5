package session

import (
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ControlState tracks how a call should end. Transitions are monotonic:
// active -> transfer_requested -> ended, and ended is absorbing.
type ControlState string

const (
	StateActive            ControlState = "active"
	StateTransferRequested ControlState = "transfer_requested"
	StateEnded             ControlState = "ended"
)

func (s ControlState) rank() int {
	switch s {
	case StateActive:
		return 0
	case StateTransferRequested:
		return 1
	case StateEnded:
		return 2
	}
	return -1
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Re-setting the current state is not a transition.
func (s ControlState) CanTransition(next ControlState) bool {
	return next.rank() > s.rank()
}

// Turn is one entry in a call transcript.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is the per-call conversation record. The relay bound to SessionID
// is the only writer while the call is live; the summary generator reads it
// afterwards.
type Session struct {
	ID           string       `json:"id"`
	CallerNumber string       `json:"caller_number"`
	Transcript   []Turn       `json:"transcript"`
	ControlState ControlState `json:"control_state"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
}
