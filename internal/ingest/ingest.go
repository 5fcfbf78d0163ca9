// Package ingest runs the polling loop that pulls draw results from the
// upstream feed and commits them to the session store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	db "github.com/Quang17112009/apiluck/internal/db/gorm"
	"github.com/Quang17112009/apiluck/internal/feed"
	"github.com/Quang17112009/apiluck/internal/telemetry"
	"github.com/Quang17112009/apiluck/pkg/models"
)

// DefaultInterval is the polling cadence when the config does not set one.
const DefaultInterval = 5 * time.Second

// Fetcher retrieves the current batch of feed records.
type Fetcher interface {
	Fetch(ctx context.Context) ([]feed.Record, error)
}

// SessionStore is the slice of storage the loop needs.
type SessionStore interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
	Insert(ctx context.Context, sess *models.Session) error
}

// Ingestor polls the feed and stores new sessions. Multiple instances
// may run against the same store; the store's uniqueness constraint is
// the only coordination between them.
type Ingestor struct {
	id       string
	client   Fetcher
	sessions SessionStore
	stats    *telemetry.IngestStats
	interval time.Duration
	notify   func(*models.Session)
	tracer   trace.Tracer
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(i *Ingestor) {
		if d > 0 {
			i.interval = d
		}
	}
}

// WithNotify registers a callback invoked after each committed session.
// The worker uses it to push live updates to SSE clients.
func WithNotify(fn func(*models.Session)) Option {
	return func(i *Ingestor) { i.notify = fn }
}

// New creates an Ingestor over the given feed client and store.
func New(client Fetcher, sessions SessionStore, stats *telemetry.IngestStats, opts ...Option) *Ingestor {
	ing := &Ingestor{
		id:       uuid.NewString(),
		client:   client,
		sessions: sessions,
		stats:    stats,
		interval: DefaultInterval,
		tracer:   telemetry.Tracer("apiluck/ingest"),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// ID returns the instance identifier used in log lines.
func (i *Ingestor) ID() string { return i.id }

// Run polls until ctx is cancelled. Poll failures are logged and
// retried on the next tick, never fatal. The first poll fires
// immediately so a fresh process does not wait a full interval.
func (i *Ingestor) Run(ctx context.Context) error {
	log.Info().
		Str("ingestorId", i.id).
		Dur("interval", i.interval).
		Msg("Ingestion loop started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("ingestorId", i.id).Msg("Ingestion loop stopped")
			return ctx.Err()
		case <-timer.C:
			if err := i.PollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Str("ingestorId", i.id).Msg("Poll failed, will retry next tick")
			}
			timer.Reset(i.interval)
		}
	}
}

// PollOnce performs a single fetch-parse-dedup-commit cycle. Malformed
// records are skipped; a feed or storage failure aborts the cycle and
// leaves already-committed sessions in place.
func (i *Ingestor) PollOnce(ctx context.Context) error {
	ctx, span := i.tracer.Start(ctx, "ingest.poll")
	defer span.End()

	i.stats.RecordPoll()

	records, err := i.client.Fetch(ctx)
	if err != nil {
		i.stats.RecordFetchError()
		span.RecordError(err)
		return fmt.Errorf("fetch feed batch: %w", err)
	}

	var committed, duplicates, malformed int
	for _, rec := range records {
		sess, err := rec.Session()
		if err != nil {
			malformed++
			i.stats.RecordMalformed()
			log.Warn().Err(err).Str("expect", rec.Expect).Msg("Skipping malformed feed record")
			continue
		}

		exists, err := i.sessions.Exists(ctx, sess.SessionID)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("check session %s: %w", sess.SessionID, err)
		}
		if exists {
			duplicates++
			i.stats.RecordDuplicate()
			continue
		}

		if err := i.sessions.Insert(ctx, sess); err != nil {
			// Lost the race to another instance; the row exists, which
			// is all this loop wants.
			if errors.Is(err, db.ErrDuplicateSession) {
				duplicates++
				i.stats.RecordDuplicate()
				continue
			}
			span.RecordError(err)
			return fmt.Errorf("insert session %s: %w", sess.SessionID, err)
		}

		committed++
		i.stats.RecordCommit(time.Now().UnixMilli())
		log.Info().
			Str("sessionId", sess.SessionID).
			Str("dice", sess.OpenCodeString()).
			Int("total", sess.Total).
			Str("outcome", string(sess.Outcome)).
			Msg("Session committed")

		if i.notify != nil {
			i.notify(sess)
		}
	}

	span.SetAttributes(
		attribute.Int("feed.records", len(records)),
		attribute.Int("feed.committed", committed),
		attribute.Int("feed.duplicates", duplicates),
		attribute.Int("feed.malformed", malformed),
	)

	if committed > 0 || malformed > 0 {
		log.Debug().
			Int("records", len(records)).
			Int("committed", committed).
			Int("duplicates", duplicates).
			Int("malformed", malformed).
			Msg("Poll cycle finished")
	}
	return nil
}
