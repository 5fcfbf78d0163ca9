// Package gorm provides GORM-based database operations for apiluck.
package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/Quang17112009/apiluck/pkg/models"
)

// Session is the persisted form of a dice session. Rows are immutable
// after insert; the unique index on session_id is the idempotency
// barrier for concurrent ingestion.
type Session struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	SessionID       string `gorm:"uniqueIndex;not null"`
	SequenceNumber  int64  `gorm:"index"`
	OpenCode        string `gorm:"type:text;not null"`
	D1              int    `gorm:"not null;check:d1 BETWEEN 1 AND 6"`
	D2              int    `gorm:"not null;check:d2 BETWEEN 1 AND 6"`
	D3              int    `gorm:"not null;check:d3 BETWEEN 1 AND 6"`
	Total           int    `gorm:"not null"`
	Outcome         string `gorm:"type:text;check:outcome IN ('High', 'Low');not null"`
	OpenedAt        string `gorm:"not null"`
	OpenedAtEpoch   int64  `gorm:"index:idx_sessions_opened,sort:desc;not null"`
	RecordedAt      string `gorm:"not null"`
	RecordedAtEpoch int64  `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

// BeforeCreate hook to ensure the ingestion timestamp is set.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.RecordedAtEpoch == 0 {
		s.RecordedAtEpoch = time.Now().UnixMilli()
	}
	if s.RecordedAt == "" {
		s.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

// newSessionRow maps a domain session onto its storage form.
func newSessionRow(m *models.Session) *Session {
	return &Session{
		SessionID:      m.SessionID,
		SequenceNumber: m.SequenceNumber,
		OpenCode:       m.OpenCodeString(),
		D1:             m.Dice[0],
		D2:             m.Dice[1],
		D3:             m.Dice[2],
		Total:          m.Total,
		Outcome:        string(m.Outcome),
		OpenedAt:       m.OpenedAt.UTC().Format(time.RFC3339),
		OpenedAtEpoch:  m.OpenedAt.UnixMilli(),
	}
}

// toModel maps a storage row back onto the domain type. Epoch columns
// are authoritative for times; the string columns exist for operators
// reading the database directly.
func (s *Session) toModel() *models.Session {
	return &models.Session{
		SessionID:      s.SessionID,
		SequenceNumber: s.SequenceNumber,
		OpenedAt:       time.UnixMilli(s.OpenedAtEpoch).UTC(),
		Dice:           [3]int{s.D1, s.D2, s.D3},
		Total:          s.Total,
		Outcome:        models.Outcome(s.Outcome),
		RecordedAt:     time.UnixMilli(s.RecordedAtEpoch).UTC(),
	}
}
