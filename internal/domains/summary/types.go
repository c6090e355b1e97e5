package summary

import (
	"context"
	"errors"
	"time"

	"github.com/voxbridge/voxbridge/internal/domains/session"
)

var ErrNotFound = errors.New("summary not found")

// Summary is the after-call digest of one session.
type Summary struct {
	SessionID    string
	CallerNumber string
	Synopsis     string
	Transcript   []session.Turn
	RecordingURL string
	GeneratedAt  time.Time
}

// Repository persists call summaries.
type Repository interface {
	Save(ctx context.Context, s *Summary) error
	GetBySessionID(ctx context.Context, sessionID string) (*Summary, error)
	// AttachRecording stores the recording URL for a session, creating a
	// bare record if no summary exists yet.
	AttachRecording(ctx context.Context, sessionID, url string) error
	// ListRecent returns up to limit summaries, newest first.
	ListRecent(ctx context.Context, limit int) ([]Summary, error)
}
