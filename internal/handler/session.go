package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scorebug/scorebug-server/internal/audit"
	"github.com/scorebug/scorebug-server/internal/middleware"
	"github.com/scorebug/scorebug-server/internal/service"
)

// SessionHandler reports what the browser is (host or linked device)
// and lets a linked device drop its credential.
type SessionHandler struct {
	pairing *service.PairingService
}

func NewSessionHandler(pairing *service.PairingService) *SessionHandler {
	return &SessionHandler{pairing: pairing}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Me)
	r.Post("/unlink", h.Unlink)

	return r
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	cred := middleware.GetCredential(r.Context())
	if cred == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"deviceName":    nil,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"deviceName":    cred.DeviceName,
	})
}

// Unlink clears the browser credential. The authorization record stays
// in the store until its TTL runs out, so a saved cookie elsewhere
// keeps working; this only forgets the credential in this browser.
func (h *SessionHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	cred := middleware.GetCredential(r.Context())
	h.pairing.Unlink(r.Context(), cred, clientIP(r))
	if cred != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventUnlink, DeviceName: cred.DeviceName})
	}
	middleware.ClearCredentialCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
