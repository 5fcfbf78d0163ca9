package worker

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	db "github.com/Quang17112009/apiluck/internal/db/gorm"
	"github.com/Quang17112009/apiluck/internal/telemetry"
	"github.com/Quang17112009/apiluck/pkg/models"
)

// maxSessionsLimit caps how many rows a single /api/sessions call can
// pull regardless of the limit parameter.
const maxSessionsLimit = 200

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", serveIndex)
	s.router.Get("/assets/*", serveAssets)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/version", s.handleVersion)
	s.router.Get("/api/stats", s.handleStats)
	s.router.Get("/api/live", s.broadcaster.HandleSSE)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)
		r.Get("/api/prediction", s.handleGetPrediction)
		r.Get("/api/sessions", s.handleListSessions)
	})
}

// requireReady rejects queries until startup finished, so clients never
// see half-initialized answers.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service not ready"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// predictionResponse is the payload of /api/prediction. Status is
// "no_data" instead of an error when the store is still empty.
type predictionResponse struct {
	Status      string            `json:"status"`
	GeneratedAt time.Time         `json:"generated_at"`
	Current     *models.Session   `json:"current,omitempty"`
	History     []models.Outcome  `json:"history"`
	Prediction  models.Prediction `json:"prediction"`
}

func (s *Service) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := predictionResponse{
		Status:      "success",
		GeneratedAt: time.Now().UTC(),
		History:     []models.Outcome{},
	}

	current, err := s.sessions.Latest(ctx)
	switch {
	case errors.Is(err, db.ErrNoSessions):
		resp.Status = "no_data"
	case err != nil:
		log.Error().Err(err).Msg("Load latest session failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session store unavailable"})
		return
	default:
		resp.Current = current
	}

	history, err := s.sessions.OutcomeHistory(ctx, s.config.HistoryLimit)
	if err != nil {
		log.Error().Err(err).Msg("Load outcome history failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session store unavailable"})
		return
	}
	if len(history) > 0 {
		resp.History = history
	}

	pred, err := s.engine.Predict(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Predict failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "prediction unavailable"})
		return
	}
	s.countPrediction(pred)
	resp.Prediction = pred

	writeJSON(w, http.StatusOK, resp)
}

// sessionsResponse is the payload of /api/sessions, newest first.
type sessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := s.config.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxSessionsLimit {
		limit = maxSessionsLimit
	}

	sessions, err := s.sessions.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("List sessions failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session store unavailable"})
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		log.Error().Err(err).Msg("Health check failed, store unreachable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// statsResponse aggregates the operational counters the dashboard polls.
type statsResponse struct {
	Version            string             `json:"version"`
	Uptime             string             `json:"uptime"`
	Ready              bool               `json:"ready"`
	SessionsStored     int64              `json:"sessionsStored"`
	ConnectedClients   int                `json:"connectedClients"`
	ModelLoaded        bool               `json:"modelLoaded"`
	ModelStale         bool               `json:"modelStale"`
	ModelPredictions   int64              `json:"modelPredictions"`
	PatternPredictions int64              `json:"patternPredictions"`
	Ingest             telemetry.Snapshot `json:"ingest"`
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	stored, err := s.sessions.Count(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Count sessions failed")
		stored = -1
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Version:            s.version,
		Uptime:             time.Since(s.startTime).Round(time.Second).String(),
		Ready:              s.ready.Load(),
		SessionsStored:     stored,
		ConnectedClients:   s.broadcaster.ClientCount(),
		ModelLoaded:        s.engine.ModelLoaded(),
		ModelStale:         s.modelStale.Load(),
		ModelPredictions:   s.modelCalls.Load(),
		PatternPredictions: s.patternCalls.Load(),
		Ingest:             s.ingestStats.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Encode response failed")
	}
}
