package call

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/internal/domains/summary"
	"gorm.io/gorm"
)

// TurnList is a custom type for handling JSON serialization of transcripts
type TurnList []session.Turn

// Value implements driver.Valuer interface for GORM
func (t TurnList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner interface for GORM
func (t *TurnList) Scan(value interface{}) error {
	if value == nil {
		*t = TurnList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		*t = TurnList{}
		return nil
	}
}

// CallRecordEntity represents the database entity for a call summary with GORM tags
type CallRecordEntity struct {
	ID           uuid.UUID `gorm:"primaryKey;type:char(36);not null"`
	SessionID    string    `gorm:"column:session_id;type:char(36);not null;uniqueIndex"`
	CallerNumber string    `gorm:"column:caller_number;type:varchar(32)"`
	Synopsis     string    `gorm:"column:synopsis;type:text"`
	Transcript   TurnList  `gorm:"type:json;column:transcript"`
	RecordingURL string    `gorm:"column:recording_url;type:varchar(512)"`
	GeneratedAt  time.Time `gorm:"column:generated_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime(3)"`
}

// TableName returns the table name for GORM
func (CallRecordEntity) TableName() string {
	return "call_records"
}

// BeforeCreate is a GORM hook to ensure UUID is set
func (c *CallRecordEntity) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ToDomain converts CallRecordEntity to a domain Summary
func (c *CallRecordEntity) ToDomain() *summary.Summary {
	return &summary.Summary{
		SessionID:    c.SessionID,
		CallerNumber: c.CallerNumber,
		Synopsis:     c.Synopsis,
		Transcript:   []session.Turn(c.Transcript),
		RecordingURL: c.RecordingURL,
		GeneratedAt:  c.GeneratedAt,
	}
}

// FromDomain converts a domain Summary to CallRecordEntity
func (c *CallRecordEntity) FromDomain(s *summary.Summary) {
	c.SessionID = s.SessionID
	c.CallerNumber = s.CallerNumber
	c.Synopsis = s.Synopsis
	c.Transcript = TurnList(s.Transcript)
	c.RecordingURL = s.RecordingURL
	c.GeneratedAt = s.GeneratedAt
}
