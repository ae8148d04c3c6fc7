package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/nhl"
	"github.com/scorebug/scorebug-server/internal/repository"
)

// ScoresHandler proxies the stats API so the browser only talks to this
// origin. Payloads pass through untouched, including the provider's
// error payloads, which the UI renders itself.
type ScoresHandler struct {
	scores *nhl.Client
	cache  repository.ScheduleCache
}

func NewScoresHandler(scores *nhl.Client, cache repository.ScheduleCache) *ScoresHandler {
	return &ScoresHandler{scores: scores, cache: cache}
}

func (h *ScoresHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	date := time.Now().Format("2006-01-02")

	if cached, err := h.cache.Schedule(r.Context(), date); err != nil {
		log.Warn().Err(err).Msg("schedule cache read failed")
	} else if cached != nil {
		writeRaw(w, cached)
		return
	}

	payload, err := h.scores.Schedule(r.Context(), date)
	if err != nil {
		log.Error().Err(err).Msg("schedule fetch failed")
		writeError(w, apperrors.Upstream("stats api", err))
		return
	}

	if _, isErr := nhl.IsErrorPayload(payload); !isErr {
		if err := h.cache.SaveSchedule(r.Context(), date, payload); err != nil {
			log.Warn().Err(err).Msg("schedule cache write failed")
		}
	}

	writeRaw(w, payload)
}

func (h *ScoresHandler) Feed(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if !validGameID(gameID) {
		writeError(w, apperrors.InvalidInput("gameId", "must be a numeric game identifier"))
		return
	}

	payload, err := h.scores.LiveFeed(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("live feed fetch failed")
		writeError(w, apperrors.Upstream("stats api", err))
		return
	}

	writeRaw(w, payload)
}

func writeRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
