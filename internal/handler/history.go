package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/model"
	"github.com/scorebug/scorebug-server/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandler lists recent link events. Only mounted when Postgres
// history is configured.
type HistoryHandler struct {
	events repository.LinkEventRepository
}

func NewHistoryHandler(events repository.LinkEventRepository) *HistoryHandler {
	return &HistoryHandler{events: events}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			writeError(w, apperrors.InvalidInput("limit", "must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list link events")
		writeError(w, apperrors.Database(err))
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		out = append(out, formatLinkEvent(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func formatLinkEvent(e model.LinkEvent) map[string]any {
	event := map[string]any{
		"id":        e.ID,
		"eventType": e.EventType,
		"createdAt": e.CreatedAt.Format(time.RFC3339),
	}
	if e.DeviceName.Valid {
		event["deviceName"] = e.DeviceName.String
	}
	if e.Detail.Valid {
		event["detail"] = e.Detail.String
	}
	return event
}
