package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Quang17112009/apiluck/pkg/models"
)

// SessionStore provides session persistence and history queries using GORM.
// "Most recent" always means highest opened_at: the feed-reported time is
// the canonical ordering key, never the sequence number.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{db: store.DB}
}

// Exists reports whether a session id is already stored.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count session: %w", err)
	}
	return count > 0, nil
}

// Insert stores a new session and stamps its RecordedAt. A session_id
// that is already present comes back as ErrDuplicateSession; concurrent
// inserts of the same id leave exactly one row either way.
func (s *SessionStore) Insert(ctx context.Context, sess *models.Session) error {
	row := newSessionRow(sess)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert session: %w", err)
	}
	stored := row.toModel()
	sess.RecordedAt = stored.RecordedAt
	return nil
}

// Latest returns the most recent session, or ErrNoSessions when the
// store is empty.
func (s *SessionStore) Latest(ctx context.Context) (*models.Session, error) {
	var row Session
	err := s.db.WithContext(ctx).
		Order("opened_at_epoch DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSessions
	}
	if err != nil {
		return nil, fmt.Errorf("load latest session: %w", err)
	}
	return row.toModel(), nil
}

// Recent returns up to limit sessions, most recent first.
func (s *SessionStore) Recent(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []Session
	err := s.db.WithContext(ctx).
		Order("opened_at_epoch DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load recent sessions: %w", err)
	}
	out := make([]models.Session, len(rows))
	for i := range rows {
		out[i] = *rows[i].toModel()
	}
	return out, nil
}

// OutcomeHistory returns up to limit outcomes, most recent first. A
// limit of zero or less loads the full history (used by the training
// exporter).
func (s *SessionStore) OutcomeHistory(ctx context.Context, limit int) ([]models.Outcome, error) {
	var outcomes []string
	q := s.db.WithContext(ctx).Model(&Session{}).
		Order("opened_at_epoch DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("outcome", &outcomes).Error; err != nil {
		return nil, fmt.Errorf("load outcome history: %w", err)
	}
	out := make([]models.Outcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = models.Outcome(o)
	}
	return out, nil
}

// Count returns the number of stored sessions.
func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Session{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}
