package summary

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps summaries in process memory. Used when no database is
// configured and in tests.
type MemoryRepo struct {
	mu        sync.RWMutex
	summaries map[string]*Summary
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{summaries: make(map[string]*Summary)}
}

// Save implements Repository.
func (r *MemoryRepo) Save(ctx context.Context, s *Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	if existing, ok := r.summaries[s.SessionID]; ok && cp.RecordingURL == "" {
		cp.RecordingURL = existing.RecordingURL
	}
	r.summaries[s.SessionID] = &cp
	return nil
}

// GetBySessionID implements Repository.
func (r *MemoryRepo) GetBySessionID(ctx context.Context, sessionID string) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.summaries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// AttachRecording implements Repository.
func (r *MemoryRepo) AttachRecording(ctx context.Context, sessionID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.summaries[sessionID]; ok {
		s.RecordingURL = url
		return nil
	}
	r.summaries[sessionID] = &Summary{SessionID: sessionID, RecordingURL: url}
	return nil
}

// ListRecent implements Repository.
func (r *MemoryRepo) ListRecent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]Summary, 0, len(r.summaries))
	for _, s := range r.summaries {
		records = append(records, *s)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].GeneratedAt.After(records[j].GeneratedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

var _ Repository = (*MemoryRepo)(nil)
