package call

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxbridge/voxbridge/internal/domains/summary"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormCallRepo struct {
	db *gorm.DB
}

func NewGormCallRepo(db *gorm.DB) *GormCallRepo {
	return &GormCallRepo{db: db}
}

// Migrate creates the call_records table.
func (g *GormCallRepo) Migrate() error {
	return g.db.AutoMigrate(&CallRecordEntity{})
}

// Save implements summary.Repository. An existing record for the session is
// updated in place so a recording attached earlier survives.
func (g *GormCallRepo) Save(ctx context.Context, s *summary.Summary) error {
	entity := &CallRecordEntity{}
	entity.FromDomain(s)

	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"caller_number", "synopsis", "transcript", "generated_at",
			}),
		}).
		Create(entity).Error
	if err != nil {
		return fmt.Errorf("failed to save call record: %w", err)
	}
	return nil
}

// GetBySessionID implements summary.Repository
func (g *GormCallRepo) GetBySessionID(ctx context.Context, sessionID string) (*summary.Summary, error) {
	var entity CallRecordEntity
	if err := g.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, summary.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call record: %w", err)
	}
	return entity.ToDomain(), nil
}

// AttachRecording implements summary.Repository
func (g *GormCallRepo) AttachRecording(ctx context.Context, sessionID, url string) error {
	result := g.db.WithContext(ctx).
		Model(&CallRecordEntity{}).
		Where("session_id = ?", sessionID).
		Update("recording_url", url)
	if result.Error != nil {
		return fmt.Errorf("failed to attach recording: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		entity := &CallRecordEntity{SessionID: sessionID, RecordingURL: url}
		if err := g.db.WithContext(ctx).Create(entity).Error; err != nil {
			return fmt.Errorf("failed to create call record for recording: %w", err)
		}
	}
	return nil
}

// ListRecent returns up to limit call records, newest first.
func (g *GormCallRepo) ListRecent(ctx context.Context, limit int) ([]summary.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	var entities []CallRecordEntity
	if err := g.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}

	records := make([]summary.Summary, 0, len(entities))
	for i := range entities {
		records = append(records, *entities[i].ToDomain())
	}
	return records, nil
}

var _ summary.Repository = (*GormCallRepo)(nil)
