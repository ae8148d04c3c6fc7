package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/audit"
	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/middleware"
	"github.com/scorebug/scorebug-server/internal/service"
)

// DisplayHandler exposes the shared current-game pointer. Every viewer
// polls the read side; only the host (an unauthenticated caller) may
// write.
type DisplayHandler struct {
	display *service.DisplayService
}

func NewDisplayHandler(display *service.DisplayService) *DisplayHandler {
	return &DisplayHandler{display: display}
}

func (h *DisplayHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Current)
	r.Put("/", h.Set)

	return r
}

func (h *DisplayHandler) Current(w http.ResponseWriter, r *http.Request) {
	id, err := h.display.Current(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read current game")
		writeError(w, apperrors.Store(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"currentGameId": nullable(id)})
}

func (h *DisplayHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID *string `json:"gameId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	gameID := ""
	if req.GameID != nil {
		gameID = *req.GameID
	}
	if gameID != "" && !validGameID(gameID) {
		writeError(w, apperrors.InvalidInput("gameId", "must be a numeric game identifier"))
		return
	}

	isHost := !middleware.IsAuthenticated(r.Context())
	if err := h.display.Set(r.Context(), gameID, isHost, clientIP(r)); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			if appErr.Code == apperrors.ErrCodeForbidden {
				event := audit.Event{
					Type:    audit.EventDisplayDenied,
					Details: map[string]interface{}{"gameId": gameID},
				}
				if cred := middleware.GetCredential(r.Context()); cred != nil {
					event.DeviceName = cred.DeviceName
				}
				audit.LogFromRequest(r, event)
			}
			writeError(w, appErr)
			return
		}
		log.Error().Err(err).Msg("failed to set current game")
		writeError(w, apperrors.Store(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"currentGameId": nullable(gameID)})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// validGameID accepts NHL gamePk identifiers, e.g. "2022020211".
func validGameID(id string) bool {
	if len(id) > 12 {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
