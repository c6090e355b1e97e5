package handlers

import (
	"time"

	"github.com/voxbridge/voxbridge/internal/domains/session"
)

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RecordingLoggedResponse acknowledges a recording status callback
type RecordingLoggedResponse struct {
	Status string `json:"status"`
}

// SummaryResponse is the stored digest of one call
type SummaryResponse struct {
	SessionID    string         `json:"session_id"`
	CallerNumber string         `json:"caller_number"`
	Synopsis     string         `json:"synopsis"`
	Transcript   []session.Turn `json:"transcript"`
	RecordingURL string         `json:"recording_url,omitempty"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
