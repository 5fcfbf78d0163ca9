package gorm

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	"github.com/Quang17112009/apiluck/pkg/models"
)

func testSessionStore(t *testing.T) (*SessionStore, *Store, func()) {
	t.Helper()

	store, err := NewStore(Config{
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return NewSessionStore(store), store, func() { _ = store.Close() }
}

// SessionStoreSuite is a test suite for SessionStore operations.
type SessionStoreSuite struct {
	suite.Suite
	sessions *SessionStore
	store    *Store
	cleanup  func()
}

func (s *SessionStoreSuite) SetupTest() {
	s.sessions, s.store, s.cleanup = testSessionStore(s.T())
}

func (s *SessionStoreSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

// mustInsert stores a session built from the given fields.
func (s *SessionStoreSuite) mustInsert(id string, seq int64, openedAt time.Time, dice [3]int) *models.Session {
	sess := models.NewSession(id, seq, openedAt, dice)
	s.Require().NoError(s.sessions.Insert(context.Background(), sess))
	return sess
}

// TestInsertAndExists tests basic persistence and the idempotency probe.
func (s *SessionStoreSuite) TestInsertAndExists() {
	ctx := context.Background()
	openedAt := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	sess := s.mustInsert("3091224", 3091224, openedAt, [3]int{3, 4, 5})
	s.False(sess.RecordedAt.IsZero(), "insert must stamp RecordedAt")

	exists, err := s.sessions.Exists(ctx, "3091224")
	s.NoError(err)
	s.True(exists)

	exists, err = s.sessions.Exists(ctx, "9999999")
	s.NoError(err)
	s.False(exists)
}

// TestInsert_Duplicate tests that a repeated session_id surfaces the
// duplicate sentinel and leaves a single row behind.
func (s *SessionStoreSuite) TestInsert_Duplicate() {
	ctx := context.Background()
	openedAt := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	s.mustInsert("3091224", 3091224, openedAt, [3]int{3, 4, 5})

	again := models.NewSession("3091224", 3091224, openedAt.Add(time.Minute), [3]int{1, 1, 2})
	err := s.sessions.Insert(ctx, again)
	s.ErrorIs(err, ErrDuplicateSession)

	count, err := s.sessions.Count(ctx)
	s.NoError(err)
	s.Equal(int64(1), count)

	// The loser recovers by re-reading the stored row, which keeps the
	// first writer's dice.
	stored, err := s.sessions.Latest(ctx)
	s.NoError(err)
	s.Equal([3]int{3, 4, 5}, stored.Dice)
}

// TestInsert_ConcurrentDuplicates tests the uniqueness barrier under
// racing writers: one wins, everyone else sees the sentinel.
func (s *SessionStoreSuite) TestInsert_ConcurrentDuplicates() {
	ctx := context.Background()
	openedAt := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := models.NewSession("3091224", 3091224, openedAt, [3]int{3, 4, 5})
			errs[i] = s.sessions.Insert(ctx, sess)
		}(i)
	}
	wg.Wait()

	var wins, dups int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			s.ErrorIs(err, ErrDuplicateSession)
			dups++
		}
	}
	s.Equal(1, wins, "exactly one writer must win")
	s.Equal(writers-1, dups)

	count, err := s.sessions.Count(ctx)
	s.NoError(err)
	s.Equal(int64(1), count)
}

// TestInsert_RejectsOutOfRangeDice tests the schema-level dice guard.
func (s *SessionStoreSuite) TestInsert_RejectsOutOfRangeDice() {
	sess := models.NewSession("bad-dice", 0, time.Now(), [3]int{9, 4, 4})
	err := s.sessions.Insert(context.Background(), sess)
	s.Error(err)
	s.NotErrorIs(err, ErrDuplicateSession)
}

// TestLatestAndRecent_OrderByOpenedAt tests that recency follows the
// feed-reported open time, not insert order and not sequence numbers.
func (s *SessionStoreSuite) TestLatestAndRecent_OrderByOpenedAt() {
	ctx := context.Background()
	base := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	// Inserted out of chronological order, with sequence numbers that
	// disagree with open times.
	s.mustInsert("s-mid", 300, base.Add(1*time.Minute), [3]int{1, 2, 3})
	s.mustInsert("s-new", 100, base.Add(2*time.Minute), [3]int{6, 5, 6})
	s.mustInsert("s-old", 200, base, [3]int{2, 2, 2})

	latest, err := s.sessions.Latest(ctx)
	s.NoError(err)
	s.Equal("s-new", latest.SessionID)
	s.Equal(base.Add(2*time.Minute), latest.OpenedAt)

	recent, err := s.sessions.Recent(ctx, 10)
	s.NoError(err)
	s.Require().Len(recent, 3)
	s.Equal("s-new", recent[0].SessionID)
	s.Equal("s-mid", recent[1].SessionID)
	s.Equal("s-old", recent[2].SessionID)

	limited, err := s.sessions.Recent(ctx, 2)
	s.NoError(err)
	s.Require().Len(limited, 2)
	s.Equal("s-new", limited[0].SessionID)
	s.Equal("s-mid", limited[1].SessionID)
}

// TestLatest_Empty tests the empty-store sentinel.
func (s *SessionStoreSuite) TestLatest_Empty() {
	_, err := s.sessions.Latest(context.Background())
	s.ErrorIs(err, ErrNoSessions)
}

// TestRecent_NonPositiveLimit tests that a zero limit loads nothing.
func (s *SessionStoreSuite) TestRecent_NonPositiveLimit() {
	sessions, err := s.sessions.Recent(context.Background(), 0)
	s.NoError(err)
	s.Empty(sessions)
}

// TestOutcomeHistory tests the outcome projection and its limits.
func (s *SessionStoreSuite) TestOutcomeHistory() {
	ctx := context.Background()
	base := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	s.mustInsert("h-1", 1, base, [3]int{6, 5, 6})                     // 17, High
	s.mustInsert("h-2", 2, base.Add(time.Minute), [3]int{1, 2, 3})    // 6, Low
	s.mustInsert("h-3", 3, base.Add(2*time.Minute), [3]int{5, 4, 3})  // 12, High
	s.mustInsert("h-4", 4, base.Add(3*time.Minute), [3]int{2, 2, 2})  // triple, Low

	history, err := s.sessions.OutcomeHistory(ctx, 10)
	s.NoError(err)
	s.Equal([]models.Outcome{
		models.OutcomeLow,
		models.OutcomeHigh,
		models.OutcomeLow,
		models.OutcomeHigh,
	}, history)

	limited, err := s.sessions.OutcomeHistory(ctx, 2)
	s.NoError(err)
	s.Equal([]models.Outcome{models.OutcomeLow, models.OutcomeHigh}, limited)

	// Zero limit loads everything, oldest last.
	full, err := s.sessions.OutcomeHistory(ctx, 0)
	s.NoError(err)
	s.Len(full, 4)
	s.Equal(models.OutcomeHigh, full[3])
}

// TestRoundTrip tests that a stored session comes back field for field.
func (s *SessionStoreSuite) TestRoundTrip() {
	openedAt := time.Date(2025, 8, 20, 12, 30, 45, 0, time.UTC)
	s.mustInsert("rt-1", 42, openedAt, [3]int{4, 6, 6})

	stored, err := s.sessions.Latest(context.Background())
	s.Require().NoError(err)
	s.Equal("rt-1", stored.SessionID)
	s.Equal(int64(42), stored.SequenceNumber)
	s.Equal(openedAt, stored.OpenedAt)
	s.Equal([3]int{4, 6, 6}, stored.Dice)
	s.Equal(16, stored.Total)
	s.Equal(models.OutcomeHigh, stored.Outcome)
	s.False(stored.RecordedAt.IsZero())
}
