// Package worker provides the HTTP service for apiluck: the prediction
// API, the session listing, the live SSE stream and the dashboard.
package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Quang17112009/apiluck/internal/config"
	db "github.com/Quang17112009/apiluck/internal/db/gorm"
	"github.com/Quang17112009/apiluck/internal/predict"
	"github.com/Quang17112009/apiluck/internal/telemetry"
	"github.com/Quang17112009/apiluck/internal/worker/sse"
	"github.com/Quang17112009/apiluck/pkg/models"
)

// Service owns the HTTP surface over the session store and the
// prediction engine.
type Service struct {
	version     string
	config      *config.Config
	store       *db.Store
	sessions    *db.SessionStore
	engine      *predict.Engine
	ingestStats *telemetry.IngestStats
	broadcaster *sse.Broadcaster

	router     *chi.Mux
	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	startTime  time.Time

	ready      atomic.Bool
	modelStale atomic.Bool

	patternCalls atomic.Int64
	modelCalls   atomic.Int64
}

// New creates the worker service and wires its routes.
func New(version string, cfg *config.Config, store *db.Store, sessions *db.SessionStore, engine *predict.Engine, stats *telemetry.IngestStats) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	svc := &Service{
		version:     version,
		config:      cfg,
		store:       store,
		sessions:    sessions,
		engine:      engine,
		ingestStats: stats,
		broadcaster: sse.NewBroadcaster(),
		router:      chi.NewRouter(),
		ctx:         ctx,
		cancel:      cancel,
		startTime:   time.Now(),
	}
	svc.setupRoutes()
	return svc
}

// Start marks the service ready and serves until the listener fails or
// Shutdown runs.
func (s *Service) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.ready.Store(true)
	log.Info().
		Str("addr", s.config.ListenAddr).
		Str("version", s.version).
		Bool("modelLoaded", s.engine.ModelLoaded()).
		Msg("Worker service listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains the listener and disconnects SSE clients.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.cancel()
	s.broadcaster.CloseAll()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// NotifySession pushes a committed session and the refreshed prediction
// to live dashboard clients. Wired as the ingestor's notify callback.
func (s *Service) NotifySession(sess *models.Session) {
	s.broadcaster.Broadcast(sse.Event{Type: "session", Data: sess})

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	pred, err := s.engine.Predict(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Refreshing prediction for broadcast failed")
		return
	}
	s.countPrediction(pred)
	s.broadcaster.Broadcast(sse.Event{Type: "prediction", Data: pred})
}

// MarkModelStale flags that the artifact on disk no longer matches the
// loaded classifier. Wired as the artifact watcher's callback; a restart
// picks the new artifact up.
func (s *Service) MarkModelStale() {
	if s.modelStale.Swap(true) {
		return
	}
	log.Warn().Str("path", s.config.ModelPath).Msg("Model artifact changed on disk, restart to load it")
	s.broadcaster.Broadcast(sse.Event{Type: "model_stale"})
}

func (s *Service) countPrediction(pred models.Prediction) {
	if pred.Source == models.SourceModel {
		s.modelCalls.Add(1)
	} else {
		s.patternCalls.Add(1)
	}
}
