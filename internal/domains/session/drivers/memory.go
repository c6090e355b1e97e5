package drivers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxbridge/voxbridge/internal/domains/session"
)

// MemoryStore implements session.Store with an in-process map. This is the
// default registry; records live for the process lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session.Session),
	}
}

// Create implements session.Store.
func (s *MemoryStore) Create(ctx context.Context, callerNumber string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := uuid.NewString()
	s.sessions[id] = &session.Session{
		ID:           id,
		CallerNumber: callerNumber,
		Transcript: []session.Turn{
			{Role: session.RoleSystem, Text: session.SeedSystemTurn, At: now},
		},
		ControlState: session.StateActive,
		CreatedAt:    now,
		LastActivity: now,
	}
	return id, nil
}

// Get implements session.Store. The returned session is a copy; transcript
// mutation goes through AppendTurn.
func (s *MemoryStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *stored
	cp.Transcript = make([]session.Turn, len(stored.Transcript))
	copy(cp.Transcript, stored.Transcript)
	return &cp, nil
}

// SetState implements session.Store. Non-forward transitions are a no-op.
func (s *MemoryStore) SetState(ctx context.Context, id string, state session.ControlState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	if stored.ControlState.CanTransition(state) {
		stored.ControlState = state
	}
	return nil
}

// AppendTurn implements session.Store.
func (s *MemoryStore) AppendTurn(ctx context.Context, id string, turn session.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	stored.Transcript = append(stored.Transcript, turn)
	return nil
}

// Touch implements session.Store.
func (s *MemoryStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	stored.LastActivity = time.Now()
	return nil
}

// Close implements session.Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	return nil
}

var _ session.Store = (*MemoryStore)(nil)
