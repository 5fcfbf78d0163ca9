// Package models contains domain models for apiluck.
package models

import (
	"fmt"
	"time"
)

// Session is one finalized dice round ingested from the external feed.
type Session struct {
	SessionID      string    `json:"session_id"`
	SequenceNumber int64     `json:"sequence_number,omitempty"`
	OpenedAt       time.Time `json:"opened_at"`
	Dice           [3]int    `json:"dice"`
	Total          int       `json:"total"`
	Outcome        Outcome   `json:"outcome"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// NewSession builds a Session from parsed feed fields, deriving total and
// outcome from the dice. RecordedAt stays zero until the store sets it at
// insert time.
func NewSession(sessionID string, sequenceNumber int64, openedAt time.Time, dice [3]int) *Session {
	total, outcome := DeriveOutcome(dice[0], dice[1], dice[2])
	return &Session{
		SessionID:      sessionID,
		SequenceNumber: sequenceNumber,
		OpenedAt:       openedAt,
		Dice:           dice,
		Total:          total,
		Outcome:        outcome,
	}
}

// OpenCodeString renders the dice in the feed's comma-delimited form.
func (s *Session) OpenCodeString() string {
	return fmt.Sprintf("%d,%d,%d", s.Dice[0], s.Dice[1], s.Dice[2])
}
